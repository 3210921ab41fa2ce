package store

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Options selects and configures a RecentStore backend.
type Options struct {
	Backend  string
	Capacity int

	SQLitePath string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisKey      string
}

// Open builds the configured RecentStore.
func Open(ctx context.Context, opts Options, logger *zap.Logger) (RecentStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch opts.Backend {
	case "", BackendMemory:
		return NewMemoryStore(opts.Capacity), nil
	case BackendSQLite:
		return NewSQLiteStore(opts.SQLitePath, opts.Capacity, logger)
	case BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
		s, err := NewRedisStore(ctx, client, opts.RedisKey, opts.Capacity)
		if err != nil {
			client.Close()
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown recent store backend %q", opts.Backend)
	}
}
