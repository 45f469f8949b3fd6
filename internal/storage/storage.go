// internal/storage/storage.go
package storage

import (
	"fmt"
	"time"

	"github.com/OrlandoBitencourt/flagx/internal/domain"
)

// Store is the flag cache: a bounded key→bool map whose entries expire
// independently after the configured TTL.
//
// Implementations never fail on the read/write path; an expired entry
// behaves as absent even if it has not been physically removed yet.
type Store interface {
	// Get returns the cached value if present and unexpired.
	Get(key string) (value bool, found bool)

	// Set inserts or overwrites a value and resets its age. It may evict
	// another entry when the store is at capacity.
	Set(key string, value bool)

	// Delete removes an entry; no-op when absent.
	Delete(key string)

	// DeletePrefix removes every entry whose key starts with prefix.
	// Backends that cannot enumerate keys may remove more.
	DeletePrefix(prefix string)

	// Clear removes all entries.
	Clear()

	// Metrics returns storage metrics
	Metrics() Metrics

	// Close releases background resources.
	Close() error
}

// Metrics represents storage metrics
type Metrics struct {
	KeysAdded   uint64 `json:"keys_added"`
	KeysEvicted uint64 `json:"keys_evicted"`
	Hits        uint64 `json:"hits"`
	Misses      uint64 `json:"misses"`

	// HitRatio is hits / (hits + misses), 0 when no lookups happened.
	HitRatio float64 `json:"hit_ratio"`

	// Size is the current number of entries, -1 when the backend cannot report it.
	Size int `json:"size"`
}

// EvictionPolicy selects the store backend.
type EvictionPolicy string

const (
	// EvictionLRU evicts the least recently used entry first.
	EvictionLRU EvictionPolicy = "lru"

	// EvictionTinyLFU uses ristretto's sampled LFU admission and eviction.
	EvictionTinyLFU EvictionPolicy = "tinylfu"
)

// Config holds storage configuration
type Config struct {
	// MaxEntries bounds the number of cached flags.
	MaxEntries int

	// TTL is applied to every entry at insertion time.
	TTL time.Duration

	// MetricsEnabled turns on backend hit/miss accounting.
	MetricsEnabled bool
}

// DefaultConfig returns default storage configuration
func DefaultConfig() Config {
	return Config{
		MaxEntries:     1000,
		TTL:            5 * time.Minute,
		MetricsEnabled: true,
	}
}

// Validate validates the storage configuration
func (c Config) Validate() error {
	if c.MaxEntries <= 0 {
		return domain.NewValidationError("MaxEntries", "must be positive")
	}
	if c.TTL <= 0 {
		return domain.NewValidationError("TTL", "must be positive")
	}
	return nil
}

// New builds the store for the given eviction policy.
func New(cfg Config, policy EvictionPolicy) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid storage config: %w", err)
	}

	switch policy {
	case EvictionLRU, "":
		return NewLRUStorage(cfg)
	case EvictionTinyLFU:
		return NewMemoryStorage(cfg)
	default:
		return nil, domain.NewValidationError("EvictionPolicy", fmt.Sprintf("unknown eviction policy: %s", policy))
	}
}

func hitRatio(hits, misses uint64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
