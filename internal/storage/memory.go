package storage

import (
	"github.com/dgraph-io/ristretto"
)

// MemoryStorage wraps Ristretto for flag storage
type MemoryStorage struct {
	cache *ristretto.Cache
	cfg   Config
}

// NewMemoryStorage creates a ristretto-backed store. Every entry costs 1,
// so MaxCost is the entry bound.
func NewMemoryStorage(cfg Config) (*MemoryStorage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        int64(cfg.MaxEntries) * 10,
		MaxCost:            int64(cfg.MaxEntries),
		BufferItems:        64,
		Metrics:            cfg.MetricsEnabled,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}

	return &MemoryStorage{
		cache: cache,
		cfg:   cfg,
	}, nil
}

// Get retrieves a flag value by key
func (m *MemoryStorage) Get(key string) (bool, bool) {
	value, found := m.cache.Get(key)
	if !found {
		return false, false
	}

	enabled, ok := value.(bool)
	return enabled, ok
}

// Set stores a flag value. It waits for ristretto's write buffer so the
// value is visible to the next Get.
func (m *MemoryStorage) Set(key string, value bool) {
	m.cache.SetWithTTL(key, value, 1, m.cfg.TTL)
	m.cache.Wait()
}

// Delete removes a flag value
func (m *MemoryStorage) Delete(key string) {
	m.cache.Del(key)
}

// DeletePrefix clears the whole cache: ristretto cannot enumerate its keys.
func (m *MemoryStorage) DeletePrefix(prefix string) {
	m.cache.Clear()
}

// Clear removes all flag values
func (m *MemoryStorage) Clear() {
	m.cache.Clear()
}

// Metrics returns storage metrics
func (m *MemoryStorage) Metrics() Metrics {
	metrics := m.cache.Metrics
	if metrics == nil {
		return Metrics{Size: -1}
	}

	added, evicted := metrics.KeysAdded(), metrics.KeysEvicted()
	return Metrics{
		KeysAdded:   added,
		KeysEvicted: evicted,
		Hits:        metrics.Hits(),
		Misses:      metrics.Misses(),
		HitRatio:    metrics.Ratio(),
		Size:        -1,
	}
}

// Close closes the store
func (m *MemoryStorage) Close() error {
	m.cache.Close()
	return nil
}
