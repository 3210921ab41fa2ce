package store

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// DefaultRedisKey is the list holding recent searches, most recent at index 0.
const DefaultRedisKey = "recent_searches_v1"

// RedisStore implements RecentStore on a Redis list.
type RedisStore struct {
	client   *redis.Client
	key      string
	capacity int
}

// NewRedisStore pings client and returns a store using key (or the default key when empty).
func NewRedisStore(ctx context.Context, client *redis.Client, key string, capacity int) (*RedisStore, error) {
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("could not connect to redis: %w", err)
	}
	if key == "" {
		key = DefaultRedisKey
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &RedisStore{client: client, key: key, capacity: capacity}, nil
}

func (s *RedisStore) Recent(ctx context.Context) ([]string, error) {
	items, err := s.client.LRange(ctx, s.key, 0, int64(s.capacity-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read recent searches: %w", err)
	}
	return items, nil
}

// RecordSearch removes earlier occurrences, pushes name to the head and
// trims to capacity in a single MULTI/EXEC.
func (s *RedisStore) RecordSearch(ctx context.Context, name string) error {
	name = normalizeName(name)
	if name == "" {
		return nil
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, s.key, 0, name)
		pipe.LPush(ctx, s.key, name)
		pipe.LTrim(ctx, s.key, 0, int64(s.capacity-1))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record recent search: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
