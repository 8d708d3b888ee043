package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryDistanceStore is a bounded in-process distance store. Least recently
// used entries are evicted once maxEntries is reached; entries older than
// ttl are dropped on access. maxEntries or ttl <= 0 disables that bound.
type MemoryDistanceStore struct {
	lru *expirable.LRU[string, float64]
}

func NewMemoryDistanceStore(maxEntries int, ttl time.Duration) *MemoryDistanceStore {
	if maxEntries < 0 {
		maxEntries = 0
	}
	if ttl < 0 {
		ttl = 0
	}
	return &MemoryDistanceStore{lru: expirable.NewLRU[string, float64](maxEntries, nil, ttl)}
}

func (m *MemoryDistanceStore) Get(_ context.Context, key string) (float64, bool, error) {
	km, ok := m.lru.Get(key)
	return km, ok, nil
}

func (m *MemoryDistanceStore) Put(_ context.Context, key string, km float64) error {
	m.lru.Add(key, km)
	return nil
}

func (m *MemoryDistanceStore) Len() int { return m.lru.Len() }

// Purge drops every entry.
func (m *MemoryDistanceStore) Purge() { m.lru.Purge() }
