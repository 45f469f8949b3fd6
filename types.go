package flagx

import (
	"github.com/OrlandoBitencourt/flagx/internal/storage"
)

// EvictionPolicy selects how the cache chooses entries to drop when full.
type EvictionPolicy string

const (
	// EvictionLRU drops the least recently used entry.
	EvictionLRU EvictionPolicy = EvictionPolicy(storage.EvictionLRU)

	// EvictionTinyLFU uses sampled frequency-based admission and eviction.
	// A new key may be refused admission when the cache is full.
	EvictionTinyLFU EvictionPolicy = EvictionPolicy(storage.EvictionTinyLFU)
)

// Metrics represents cache performance metrics.
type Metrics struct {
	// Storage metrics
	Storage StorageMetrics `json:"storage"`

	// RemoteCalls is the number of evaluations sent to the service
	RemoteCalls uint64 `json:"remote_calls"`

	// RemoteFailures is the number of remote calls that did not yield a value
	RemoteFailures uint64 `json:"remote_failures"`

	// Fallbacks is the number of queries answered with a fallback value
	Fallbacks uint64 `json:"fallbacks"`

	// EmptyKeys is the number of queries rejected for a blank flag key
	EmptyKeys uint64 `json:"empty_keys"`
}

// StorageMetrics represents storage layer metrics.
type StorageMetrics struct {
	// KeysAdded is the total number of keys added to cache
	KeysAdded uint64 `json:"keys_added"`

	// KeysEvicted is the total number of keys removed from cache
	KeysEvicted uint64 `json:"keys_evicted"`

	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`

	// HitRatio is the cache hit ratio (0.0 to 1.0)
	HitRatio float64 `json:"hit_ratio"`

	// Size is the number of entries held, or -1 when the backend cannot
	// report it
	Size int `json:"size"`
}
