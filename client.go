// Package flagx is a client for a remote boolean feature-flag service
// with a local TTL cache and configurable fallback values.
package flagx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/OrlandoBitencourt/flagx/internal/cache"
	"github.com/OrlandoBitencourt/flagx/internal/domain"
	"github.com/OrlandoBitencourt/flagx/internal/gateway"
	"github.com/OrlandoBitencourt/flagx/internal/logging"
	"github.com/OrlandoBitencourt/flagx/internal/server"
	"github.com/OrlandoBitencourt/flagx/internal/storage"
	"github.com/OrlandoBitencourt/flagx/internal/telemetry"
)

const shutdownTimeout = 5 * time.Second

// Client is the main entry point for flagx.
// It is safe for concurrent use.
type Client struct {
	cache     *cache.Cache
	config    Config
	logger    Logger
	telemetry telemetry.Provider

	middleware *server.Middleware

	// Optional servers
	admin   *server.AdminServer
	webhook *server.WebhookServer
}

// New creates a new flagx client with the given options.
//
// Example:
//
//	client, err := flagx.New(
//	    flagx.WithBaseURL("http://localhost:8080"),
//	    flagx.WithCacheTTL(time.Minute),
//	    flagx.WithDefaultValueOnError(false),
//	)
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{config: DefaultConfig()}

	// Apply options
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.config.Validate(); err != nil {
		return nil, err
	}
	if cfg.config.EvictionPolicy == "" {
		cfg.config.EvictionPolicy = EvictionLRU
	}

	logger := cfg.logger
	if logger == nil {
		logger = logging.Default()
	}

	tel, err := telemetry.NewOTel(cfg.meterProvider, cfg.tracerProvider)
	if err != nil {
		return nil, &ConfigError{Field: "Telemetry", Message: err.Error()}
	}

	store, err := storage.New(storage.Config{
		MaxEntries:     cfg.config.CacheMaxSize,
		TTL:            cfg.config.CacheTTL,
		MetricsEnabled: true,
	}, storage.EvictionPolicy(cfg.config.EvictionPolicy))
	if err != nil {
		return nil, newConfigError("Cache", err)
	}

	gw := gateway.New(gateway.Config{
		BaseURL:        cfg.config.BaseURL,
		ConnectTimeout: cfg.config.ConnectTimeout,
		ReadTimeout:    cfg.config.ReadTimeout,
		UserAgent:      cfg.config.UserAgent,
		HTTPClient:     cfg.httpClient,
	}, logger, tel)

	c, err := cache.New(
		cache.WithEvaluator(gw),
		cache.WithStorage(store),
		cache.WithLogger(logger),
		cache.WithTelemetry(tel),
		cache.WithDefaultValueOnError(cfg.config.DefaultValueOnError),
		cache.WithRequestCoalescing(cfg.coalesce),
	)
	if err != nil {
		_ = store.Close()
		return nil, newConfigError("Cache", err)
	}

	client := &Client{
		cache:      c,
		config:     cfg.config,
		logger:     logger,
		telemetry:  tel,
		middleware: server.NewMiddleware(),
	}

	if cfg.adminEnabled {
		client.admin = server.NewAdminServer(c, cfg.adminAddr, logger)
	}
	if cfg.webhookEnabled {
		client.webhook = server.NewWebhookServer(c, cfg.webhookAddr, cfg.webhookSecret, logger)
	}

	return client, nil
}

// IsEnabled reports whether flagKey is enabled. It never fails: if the
// flag cannot be resolved it returns the WithDefault value, or
// Config.DefaultValueOnError when none was given.
//
// Example:
//
//	if client.IsEnabled(ctx, "new-checkout", flagx.ForTarget(userID)) {
//	    // ...
//	}
func (c *Client) IsEnabled(ctx context.Context, flagKey string, opts ...EvalOption) bool {
	return c.cache.IsEnabled(ctx, toQuery(flagKey, opts))
}

// Invalidate removes the cached value for flagKey (and the ForTarget
// target, if given). The next IsEnabled call fetches it again.
func (c *Client) Invalidate(flagKey string, opts ...EvalOption) {
	q := toQuery(flagKey, opts)
	c.cache.Invalidate(q.FlagKey, q.TargetID)
}

// InvalidateFlag removes the cached values of flagKey for every target.
// With the TinyLFU policy the whole cache is cleared.
func (c *Client) InvalidateFlag(flagKey string) {
	c.cache.InvalidateFlag(flagKey)
}

// ClearCache removes every cached value.
func (c *Client) ClearCache() {
	c.cache.InvalidateAll()
}

// Config returns a copy of the client's configuration.
func (c *Client) Config() Config {
	return c.config
}

// Metrics returns current cache performance metrics.
func (c *Client) Metrics() Metrics {
	m := c.cache.GetMetrics()
	return Metrics{
		Storage: StorageMetrics{
			KeysAdded:   m.Storage.KeysAdded,
			KeysEvicted: m.Storage.KeysEvicted,
			Hits:        m.Storage.Hits,
			Misses:      m.Storage.Misses,
			HitRatio:    m.Storage.HitRatio,
			Size:        m.Storage.Size,
		},
		RemoteCalls:    m.RemoteCalls,
		RemoteFailures: m.RemoteFailures,
		Fallbacks:      m.Fallbacks,
		EmptyKeys:      m.EmptyKeys,
	}
}

// Start starts the optional admin and webhook servers. It is a no-op when
// neither is configured. Flags can be evaluated without calling Start.
func (c *Client) Start(ctx context.Context) error {
	if c.admin != nil {
		if err := c.admin.Start(); err != nil {
			return fmt.Errorf("failed to start admin server: %w", err)
		}
	}

	if c.webhook != nil {
		if err := c.webhook.Start(); err != nil {
			if c.admin != nil {
				_ = c.admin.Shutdown(ctx)
			}
			return fmt.Errorf("failed to start webhook server: %w", err)
		}
	}

	return nil
}

// AdminAddr returns the admin server's bound address, or "" if it is not running.
func (c *Client) AdminAddr() string {
	if c.admin == nil {
		return ""
	}
	return c.admin.Addr()
}

// WebhookAddr returns the webhook server's bound address, or "" if it is not running.
func (c *Client) WebhookAddr() string {
	if c.webhook == nil {
		return ""
	}
	return c.webhook.Addr()
}

// Close stops the servers and releases the cache.
//
// With the default LRU policy each Client owns an expiry goroutine that
// Close cannot stop. Reuse one Client per process, or use EvictionTinyLFU
// when clients are created and discarded repeatedly.
func (c *Client) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if c.webhook != nil {
		errs = append(errs, c.webhook.Shutdown(ctx))
	}
	if c.admin != nil {
		errs = append(errs, c.admin.Shutdown(ctx))
	}
	errs = append(errs, c.cache.Close(), c.telemetry.Shutdown(ctx))

	return errors.Join(errs...)
}

// HTTPMiddleware stores the request's target ID, taken from the X-User-ID
// header or the user_id cookie, in the request context. Handlers pick it
// up with TargetFromRequest.
func (c *Client) HTTPMiddleware(next http.Handler) http.Handler {
	return c.middleware.Handler(next)
}

// TargetFromRequest evaluates for the target stored by HTTPMiddleware. It
// has no effect when the context carries no target.
func TargetFromRequest(ctx context.Context) EvalOption {
	target, ok := server.TargetFromContext(ctx)
	if !ok {
		return func(*evalOptions) {}
	}
	return ForTarget(target)
}

// Internal conversion helpers

func toQuery(flagKey string, opts []EvalOption) domain.Query {
	var o evalOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return domain.Query{
		FlagKey:    flagKey,
		TargetID:   o.targetID,
		HasTarget:  o.hasTarget,
		Default:    o.def,
		HasDefault: o.hasDefault,
	}
}
