package store

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements RecentStore on a local SQLite file (pure Go driver).
// Each search gets a monotonically increasing seq; recency is seq order.
type SQLiteStore struct {
	db       *sql.DB
	capacity int
}

const sqliteSchema = `CREATE TABLE IF NOT EXISTS recent_searches (
	name TEXT PRIMARY KEY,
	seq  INTEGER NOT NULL
);`

// NewSQLiteStore opens (or creates) the database at path and applies the schema.
func NewSQLiteStore(path string, capacity int, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// Single writer; avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		logger.Warn("could not set sqlite WAL mode", zap.Error(err))
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}

	return &SQLiteStore{db: db, capacity: capacity}, nil
}

func (s *SQLiteStore) Recent(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM recent_searches ORDER BY seq DESC LIMIT ?`, s.capacity)
	if err != nil {
		return nil, fmt.Errorf("query recent searches: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0, s.capacity)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// RecordSearch upserts name with the next seq and trims rows beyond capacity
// in one transaction.
func (s *SQLiteStore) RecordSearch(ctx context.Context, name string) (err error) {
	name = normalizeName(name)
	if name == "" {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `INSERT INTO recent_searches(name, seq)
		VALUES(?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM recent_searches))
		ON CONFLICT(name) DO UPDATE SET seq = excluded.seq`, name); err != nil {
		return fmt.Errorf("upsert recent search: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM recent_searches WHERE name NOT IN (
		SELECT name FROM recent_searches ORDER BY seq DESC LIMIT ?)`, s.capacity); err != nil {
		return fmt.Errorf("trim recent searches: %w", err)
	}

	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
