package store

import (
	"context"
	"strings"
	"sync"
)

// DefaultCapacity is the number of recent searches kept.
const DefaultCapacity = 5

// RecentStore persists the most-recently-used list of searched place names.
type RecentStore interface {
	// Recent returns the stored names, most recent first.
	Recent(ctx context.Context) ([]string, error)
	// RecordSearch moves name to the front, removing any earlier occurrence
	// and evicting the oldest entry beyond capacity.
	RecordSearch(ctx context.Context, name string) error
	Close() error
}

// Promote returns list with name moved to the front, deduplicated and capped
// at capacity. list is not modified.
func Promote(list []string, name string, capacity int) []string {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	out := make([]string, 0, capacity)
	out = append(out, name)
	for _, item := range list {
		if len(out) == capacity {
			break
		}
		if item == name {
			continue
		}
		out = append(out, item)
	}
	return out
}

func normalizeName(name string) string {
	return strings.TrimSpace(name)
}

// MemoryStore is a concurrency-safe in-memory RecentStore.
type MemoryStore struct {
	mu       sync.RWMutex
	items    []string
	capacity int
}

// NewMemoryStore creates a MemoryStore. A capacity <= 0 uses DefaultCapacity.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryStore{capacity: capacity}
}

func (s *MemoryStore) Recent(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.items))
	copy(out, s.items)
	return out, nil
}

// RecordSearch ignores blank names.
func (s *MemoryStore) RecordSearch(_ context.Context, name string) error {
	name = normalizeName(name)
	if name == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = Promote(s.items, name, s.capacity)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
