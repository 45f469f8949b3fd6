package cache

import (
	"github.com/OrlandoBitencourt/flagx/internal/gateway"
	"github.com/OrlandoBitencourt/flagx/internal/logging"
	"github.com/OrlandoBitencourt/flagx/internal/storage"
	"github.com/OrlandoBitencourt/flagx/internal/telemetry"
)

// Config holds cache configuration
type Config struct {
	// DefaultValueOnError is returned when no per-call default is given
	// and the flag cannot be resolved.
	DefaultValueOnError bool

	// CoalesceRequests shares one remote call between concurrent misses
	// on the same cache key.
	CoalesceRequests bool
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		DefaultValueOnError: false,
		CoalesceRequests:    false,
	}
}

// Option configures a Cache.
type Option func(*Cache)

// WithEvaluator sets the remote evaluator. Required.
func WithEvaluator(e gateway.Evaluator) Option {
	return func(c *Cache) {
		c.evaluator = e
	}
}

// WithStorage sets the flag store. Required.
func WithStorage(s storage.Store) Option {
	return func(c *Cache) {
		c.storage = s
	}
}

// WithLogger sets the diagnostics sink.
func WithLogger(l logging.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTelemetry sets the telemetry provider.
func WithTelemetry(p telemetry.Provider) Option {
	return func(c *Cache) {
		if p != nil {
			c.telemetry = p
		}
	}
}

// WithDefaultValueOnError sets the configured fallback value.
func WithDefaultValueOnError(v bool) Option {
	return func(c *Cache) {
		c.config.DefaultValueOnError = v
	}
}

// WithRequestCoalescing enables singleflight deduplication of concurrent misses.
func WithRequestCoalescing(enabled bool) Option {
	return func(c *Cache) {
		c.config.CoalesceRequests = enabled
	}
}
