package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromote(t *testing.T) {
	tests := []struct {
		name string
		list []string
		add  string
		want []string
	}{
		{"empty", nil, "Paris", []string{"Paris"}},
		{"new to front", []string{"Rome"}, "Paris", []string{"Paris", "Rome"}},
		{"dedupe", []string{"Rome", "Paris"}, "Paris", []string{"Paris", "Rome"}},
		{"evict oldest", []string{"E", "D", "C", "B", "A"}, "F", []string{"F", "E", "D", "C", "B"}},
		{"existing at capacity", []string{"E", "D", "C", "B", "A"}, "C", []string{"C", "E", "D", "B", "A"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := append([]string(nil), tt.list...)
			assert.Equal(t, tt.want, Promote(tt.list, tt.add, DefaultCapacity))
			assert.Equal(t, orig, tt.list)
		})
	}
}

// exerciseStore checks the recent-list contract shared by every backend.
func exerciseStore(t *testing.T, s RecentStore) {
	t.Helper()
	ctx := context.Background()

	got, err := s.Recent(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	for _, name := range []string{"Paris", "Rome", "Paris"} {
		require.NoError(t, s.RecordSearch(ctx, name))
	}
	got, err = s.Recent(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Paris", "Rome"}, got)

	require.NoError(t, s.RecordSearch(ctx, "   "))
	got, err = s.Recent(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2, "blank names are ignored")

	for i := 1; i <= 5; i++ {
		require.NoError(t, s.RecordSearch(ctx, fmt.Sprintf("City %d", i)))
	}
	got, err = s.Recent(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"City 5", "City 4", "City 3", "City 2", "City 1"}, got)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore(DefaultCapacity))
}

func TestMemoryStoreReturnsCopy(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()
	require.NoError(t, s.RecordSearch(ctx, "Oslo"))

	got, _ := s.Recent(ctx)
	got[0] = "mutated"

	again, _ := s.Recent(ctx)
	assert.Equal(t, []string{"Oslo"}, again)
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recent.db")
	s, err := NewSQLiteStore(path, DefaultCapacity, nil)
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)
}

func TestSQLiteStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recent.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path, DefaultCapacity, nil)
	require.NoError(t, err)
	require.NoError(t, s.RecordSearch(ctx, "Lisbon"))
	require.NoError(t, s.RecordSearch(ctx, "Porto"))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(path, DefaultCapacity, nil)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Recent(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Porto", "Lisbon"}, got)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	key := "recent_searches_test_" + uuid.NewString()

	client := redis.NewClient(&redis.Options{Addr: addr})
	s, err := NewRedisStore(ctx, client, key, DefaultCapacity)
	require.NoError(t, err)
	defer func() {
		client.Del(ctx, key)
		s.Close()
	}()

	exerciseStore(t, s)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Options{Backend: BackendMemory}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, Options{Backend: BackendSQLite, SQLitePath: filepath.Join(t.TempDir(), "r.db")}, nil)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, Options{Backend: "mongo"}, nil)
	assert.Error(t, err)
}
