// Package cache provides additive, eviction-free key/value stores used to
// memoize external lookups (pair naming, token metadata). Entries are never
// invalidated; a later Set for the same key overwrites the earlier value.
package cache

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Store is a string-keyed cache of V.
type Store[V any] interface {
	Get(ctx context.Context, key string) (V, bool, error)
	Set(ctx context.Context, key string, value V) error
}

// GetOrLoad returns the cached value for key, calling load on a miss and
// storing its result. Cache failures fall through to load; a cache is never a
// correctness dependency.
func GetOrLoad[V any](ctx context.Context, s Store[V], key string, load func(context.Context) (V, error)) (V, error) {
	if v, ok, err := s.Get(ctx, key); err == nil && ok {
		return v, nil
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	_ = s.Set(ctx, key, v)
	return v, nil
}

// Memory is an in-process Store.
type Memory[V any] struct {
	mu    sync.RWMutex
	items map[string]V
}

var _ Store[int] = (*Memory[int])(nil)

// NewMemory returns an empty in-memory store.
func NewMemory[V any]() *Memory[V] {
	return &Memory[V]{items: make(map[string]V)}
}

func (m *Memory[V]) Get(_ context.Context, key string) (V, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *Memory[V]) Set(_ context.Context, key string, value V) error {
	m.mu.Lock()
	m.items[key] = value
	m.mu.Unlock()
	return nil
}

// Len returns the number of entries.
func (m *Memory[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// NewStore returns a Redis store under prefix:name when client is set, and an
// in-memory store otherwise.
func NewStore[V any](client redis.UniversalClient, prefix, name string) Store[V] {
	if client == nil {
		return NewMemory[V]()
	}
	return NewRedis[V](client, prefix+":"+name)
}
