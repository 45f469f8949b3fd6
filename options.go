package flagx

import (
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Option configures a flagx client.
type Option func(*clientConfig) error

// clientConfig holds internal configuration.
type clientConfig struct {
	config Config

	logger         Logger
	httpClient     *http.Client
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	coalesce       bool

	// Server options
	adminEnabled   bool
	adminAddr      string
	webhookEnabled bool
	webhookAddr    string
	webhookSecret  string
}

// WebhookConfig configures the webhook server used for external invalidation.
type WebhookConfig struct {
	// Addr is the listen address, e.g. ":18001"
	Addr string

	// Secret is the shared secret for HMAC-SHA256 signatures.
	// Empty disables signature verification.
	Secret string
}

// AdminConfig configures the admin server.
type AdminConfig struct {
	// Addr is the listen address, e.g. ":19000"
	Addr string
}

// WithConfig replaces the whole configuration. Options applied after it
// still override individual fields.
func WithConfig(cfg Config) Option {
	return func(c *clientConfig) error {
		c.config = cfg
		return nil
	}
}

// WithBaseURL sets the evaluation service URL.
// Default: http://localhost:8080
//
// Example: flagx.WithBaseURL("https://flags.internal:8080")
func WithBaseURL(baseURL string) Option {
	return func(c *clientConfig) error {
		if baseURL == "" {
			return &ConfigError{Field: "BaseURL", Message: "cannot be empty"}
		}
		c.config.BaseURL = baseURL
		return nil
	}
}

// WithConnectTimeout sets the connection timeout for remote calls.
// Default: 5 seconds
func WithConnectTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) error {
		if timeout <= 0 {
			return &ConfigError{Field: "ConnectTimeout", Message: "must be positive"}
		}
		c.config.ConnectTimeout = timeout
		return nil
	}
}

// WithReadTimeout sets the timeout of a whole remote call.
// Default: 5 seconds
func WithReadTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) error {
		if timeout <= 0 {
			return &ConfigError{Field: "ReadTimeout", Message: "must be positive"}
		}
		c.config.ReadTimeout = timeout
		return nil
	}
}

// WithCacheMaxSize sets the maximum number of cached entries.
// Default: 1000
func WithCacheMaxSize(size int) Option {
	return func(c *clientConfig) error {
		if size <= 0 {
			return &ConfigError{Field: "CacheMaxSize", Message: "must be positive"}
		}
		c.config.CacheMaxSize = size
		return nil
	}
}

// WithCacheTTL sets how long a fetched value is served from cache.
// Default: 300 seconds
//
// Example: flagx.WithCacheTTL(time.Minute)
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *clientConfig) error {
		if ttl <= 0 {
			return &ConfigError{Field: "CacheTTL", Message: "must be positive"}
		}
		c.config.CacheTTL = ttl
		return nil
	}
}

// WithDefaultValueOnError sets the value returned when a flag cannot be
// resolved and the call passed no WithDefault.
// Default: false
func WithDefaultValueOnError(value bool) Option {
	return func(c *clientConfig) error {
		c.config.DefaultValueOnError = value
		return nil
	}
}

// WithEvictionPolicy selects the cache backend.
// Options: EvictionLRU, EvictionTinyLFU
// Default: EvictionLRU
func WithEvictionPolicy(policy EvictionPolicy) Option {
	return func(c *clientConfig) error {
		switch policy {
		case EvictionLRU, EvictionTinyLFU:
		default:
			return &ConfigError{Field: "EvictionPolicy", Message: fmt.Sprintf("invalid eviction policy: %s", policy)}
		}
		c.config.EvictionPolicy = policy
		return nil
	}
}

// WithUserAgent sets the User-Agent header of remote calls.
func WithUserAgent(userAgent string) Option {
	return func(c *clientConfig) error {
		c.config.UserAgent = userAgent
		return nil
	}
}

// WithLogger sets the diagnostics sink.
// Default: zerolog JSON on stderr at warn level
func WithLogger(logger Logger) Option {
	return func(c *clientConfig) error {
		if logger == nil {
			return &ConfigError{Field: "Logger", Message: "cannot be nil"}
		}
		c.logger = logger
		return nil
	}
}

// WithHTTPClient replaces the HTTP client used for remote calls. The
// configured timeouts are not applied to it.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) error {
		if client == nil {
			return &ConfigError{Field: "HTTPClient", Message: "cannot be nil"}
		}
		c.httpClient = client
		return nil
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider.
// Default: the global provider
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *clientConfig) error {
		c.meterProvider = mp
		return nil
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider.
// Default: the global provider
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *clientConfig) error {
		c.tracerProvider = tp
		return nil
	}
}

// WithRequestCoalescing makes concurrent misses for the same flag and
// target share a single remote call.
// Default: false
func WithRequestCoalescing(enabled bool) Option {
	return func(c *clientConfig) error {
		c.coalesce = enabled
		return nil
	}
}

// WithAdminServer enables the admin API, started by Client.Start.
//
// Endpoints:
//   - GET  /health
//   - GET  /admin/stats
//   - POST /admin/invalidate       {"flag_key": "...", "target_id": "..."}
//   - POST /admin/invalidate-all
func WithAdminServer(cfg AdminConfig) Option {
	return func(c *clientConfig) error {
		if cfg.Addr == "" {
			return &ConfigError{Field: "AdminConfig.Addr", Message: "cannot be empty"}
		}
		c.adminEnabled = true
		c.adminAddr = cfg.Addr
		return nil
	}
}

// WithWebhookInvalidation enables the webhook server, started by Client.Start.
// It accepts POST /webhook with events "flag.updated", "flag.deleted" and
// "cache.cleared".
func WithWebhookInvalidation(cfg WebhookConfig) Option {
	return func(c *clientConfig) error {
		if cfg.Addr == "" {
			return &ConfigError{Field: "WebhookConfig.Addr", Message: "cannot be empty"}
		}
		c.webhookEnabled = true
		c.webhookAddr = cfg.Addr
		c.webhookSecret = cfg.Secret
		return nil
	}
}

// EvalOption configures a single flag evaluation.
type EvalOption func(*evalOptions)

type evalOptions struct {
	targetID   string
	hasTarget  bool
	def        bool
	hasDefault bool
}

// ForTarget evaluates the flag for a specific target, e.g. a user ID.
func ForTarget(targetID string) EvalOption {
	return func(o *evalOptions) {
		o.targetID = targetID
		o.hasTarget = true
	}
}

// WithDefault sets the value returned if the flag cannot be resolved. It
// takes precedence over Config.DefaultValueOnError.
func WithDefault(value bool) EvalOption {
	return func(o *evalOptions) {
		o.def = value
		o.hasDefault = true
	}
}
