package cache

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/OrlandoBitencourt/flagx/internal/domain"
	"github.com/OrlandoBitencourt/flagx/internal/gateway"
	"github.com/OrlandoBitencourt/flagx/internal/logging"
	"github.com/OrlandoBitencourt/flagx/internal/storage"
	"github.com/OrlandoBitencourt/flagx/internal/telemetry"
)

// Cache is the orchestrator that coordinates the flag store and the remote
// evaluator and resolves fallback values.
type Cache struct {
	// Dependencies (injected)
	evaluator gateway.Evaluator
	storage   storage.Store
	logger    logging.Logger
	telemetry telemetry.Provider

	config Config

	// nil unless request coalescing is enabled
	group *singleflight.Group

	remoteCalls    atomic.Uint64
	remoteFailures atomic.Uint64
	fallbacks      atomic.Uint64
	emptyKeys      atomic.Uint64
}

// New creates a new cache with the given options
func New(opts ...Option) (*Cache, error) {
	c := &Cache{
		config:    DefaultConfig(),
		logger:    logging.NopLogger{},
		telemetry: telemetry.NewNoOp(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.evaluator == nil {
		return nil, domain.NewValidationError("Evaluator", "is required")
	}
	if c.storage == nil {
		return nil, domain.NewValidationError("Storage", "is required")
	}

	if c.config.CoalesceRequests {
		c.group = &singleflight.Group{}
	}

	return c, nil
}

// IsEnabled resolves a flag: empty key → fallback, cache hit → cached value,
// miss → one remote call, cached on success, fallback otherwise.
// It never fails.
func (c *Cache) IsEnabled(ctx context.Context, q domain.Query) bool {
	ctx, span := c.telemetry.StartSpan(ctx, "flagx.IsEnabled",
		telemetry.WithAttributes(
			telemetry.String("flag.key", q.FlagKey),
			telemetry.String("target.id", q.TargetID),
		))
	defer span.End()

	if q.EmptyKey() {
		fallback := q.Fallback(c.config.DefaultValueOnError)
		c.emptyKeys.Add(1)
		c.fallbacks.Add(1)
		c.telemetry.RecordFallback(ctx, q.FlagKey, string(domain.FailureEmptyKey))
		c.logger.Warn("flag key cannot be empty, returning fallback",
			"fallback", fallback,
			"explicit_default", q.HasDefault,
		)
		span.AddEvent("fallback",
			telemetry.String("reason", string(domain.FailureEmptyKey)),
			telemetry.Bool("value", fallback),
		)
		span.SetAttributes(telemetry.String("flagx.source", "fallback"))
		return fallback
	}

	key := storage.Key(q.FlagKey, q.TargetID)

	if value, ok := c.storage.Get(key); ok {
		c.telemetry.RecordCacheHit(ctx, q.FlagKey)
		c.logger.Debug("flag found in cache",
			"flag_key", q.FlagKey,
			"target_id", q.TargetID,
			"value", value,
		)
		span.SetAttributes(telemetry.String("flagx.source", "cache"))
		return value
	}
	c.telemetry.RecordCacheMiss(ctx, q.FlagKey)

	result := c.fetch(ctx, q, key)
	if result.Available() {
		span.SetAttributes(telemetry.String("flagx.source", "remote"))
		return result.Enabled
	}

	fallback := q.Fallback(c.config.DefaultValueOnError)
	c.fallbacks.Add(1)
	c.telemetry.RecordFallback(ctx, q.FlagKey, "unavailable")
	c.logger.Warn("could not fetch flag, returning fallback",
		"flag_key", q.FlagKey,
		"target_id", q.TargetID,
		"fallback", fallback,
		"explicit_default", q.HasDefault,
	)
	span.AddEvent("fallback",
		telemetry.String("reason", "unavailable"),
		telemetry.Bool("value", fallback),
	)
	span.SetAttributes(telemetry.String("flagx.source", "fallback"))
	return fallback
}

// fetch runs the remote call detached from the caller's cancellation: once
// issued, a call completes, times out or fails on its own.
func (c *Cache) fetch(ctx context.Context, q domain.Query, key string) gateway.Result {
	ctx = context.WithoutCancel(ctx)

	if c.group == nil {
		return c.load(ctx, q, key)
	}

	v, _, _ := c.group.Do(key, func() (interface{}, error) {
		return c.load(ctx, q, key), nil
	})
	return v.(gateway.Result)
}

// load performs one remote evaluation and stores successful results.
// Failures are never cached.
func (c *Cache) load(ctx context.Context, q domain.Query, key string) gateway.Result {
	c.remoteCalls.Add(1)

	result := c.evaluator.Evaluate(ctx, q.FlagKey, q.TargetID)
	if !result.Available() {
		c.remoteFailures.Add(1)
		return result
	}

	c.storage.Set(key, result.Enabled)
	c.logger.Debug("flag fetched from remote",
		"flag_key", q.FlagKey,
		"target_id", q.TargetID,
		"value", result.Enabled,
	)
	return result
}

// Invalidate removes one flag/target entry from the cache. It never calls
// the remote evaluator.
func (c *Cache) Invalidate(flagKey, targetID string) {
	c.storage.Delete(storage.Key(flagKey, targetID))
	c.logger.Info("invalidated flag from cache",
		"flag_key", flagKey,
		"target_id", targetID,
	)
}

// InvalidateFlag removes a flag for every target.
func (c *Cache) InvalidateFlag(flagKey string) {
	c.storage.DeletePrefix(flagKey + storage.KeySeparator)
	c.logger.Info("invalidated flag for all targets",
		"flag_key", flagKey,
	)
}

// InvalidateAll clears the entire cache
func (c *Cache) InvalidateAll() {
	c.storage.Clear()
	c.logger.Info("local flag cache cleared")
}

// GetMetrics returns cache metrics
func (c *Cache) GetMetrics() Metrics {
	return Metrics{
		Storage:        c.storage.Metrics(),
		RemoteCalls:    c.remoteCalls.Load(),
		RemoteFailures: c.remoteFailures.Load(),
		Fallbacks:      c.fallbacks.Load(),
		EmptyKeys:      c.emptyKeys.Load(),
	}
}

// Close releases the store.
func (c *Cache) Close() error {
	return c.storage.Close()
}

// Metrics represents cache metrics
type Metrics struct {
	Storage        storage.Metrics `json:"storage"`
	RemoteCalls    uint64          `json:"remote_calls"`
	RemoteFailures uint64          `json:"remote_failures"`
	Fallbacks      uint64          `json:"fallbacks"`
	EmptyKeys      uint64          `json:"empty_keys"`
}
