package storage

import (
	"strings"
	"sync/atomic"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// LRUStorage is a size-bounded LRU with a per-entry TTL.
type LRUStorage struct {
	cache *expirable.LRU[string, bool]

	added   atomic.Uint64
	evicted atomic.Uint64
	hits    atomic.Uint64
	misses  atomic.Uint64
}

// NewLRUStorage creates an LRU-backed store.
func NewLRUStorage(cfg Config) (*LRUStorage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &LRUStorage{}
	s.cache = expirable.NewLRU[string, bool](cfg.MaxEntries, s.onEvict, cfg.TTL)
	return s, nil
}

// onEvict runs for capacity evictions, expiry sweeps, Delete and Clear alike.
func (s *LRUStorage) onEvict(key string, value bool) {
	s.evicted.Add(1)
}

// Get retrieves a flag value by key
func (s *LRUStorage) Get(key string) (bool, bool) {
	value, ok := s.cache.Get(key)
	if !ok {
		s.misses.Add(1)
		return false, false
	}
	s.hits.Add(1)
	return value, true
}

// Set stores a flag value
func (s *LRUStorage) Set(key string, value bool) {
	if !s.cache.Contains(key) {
		s.added.Add(1)
	}
	s.cache.Add(key, value)
}

// Delete removes a flag value
func (s *LRUStorage) Delete(key string) {
	s.cache.Remove(key)
}

// DeletePrefix removes every flag value whose key starts with prefix
func (s *LRUStorage) DeletePrefix(prefix string) {
	for _, key := range s.cache.Keys() {
		if strings.HasPrefix(key, prefix) {
			s.cache.Remove(key)
		}
	}
}

// Clear removes all flag values
func (s *LRUStorage) Clear() {
	s.cache.Purge()
}

// Metrics returns storage metrics
func (s *LRUStorage) Metrics() Metrics {
	hits, misses := s.hits.Load(), s.misses.Load()
	return Metrics{
		KeysAdded:   s.added.Load(),
		KeysEvicted: s.evicted.Load(),
		Hits:        hits,
		Misses:      misses,
		HitRatio:    hitRatio(hits, misses),
		Size:        s.cache.Len(),
	}
}

// Close is a no-op. The expirable LRU starts a sweeper goroutine that the
// library gives no way to stop, so it outlives the store.
func (s *LRUStorage) Close() error { return nil }
