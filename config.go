package flagx

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v6"
)

// Default configuration values.
const (
	DefaultBaseURL        = "http://localhost:8080"
	DefaultConnectTimeout = 5 * time.Second
	DefaultReadTimeout    = 5 * time.Second
	DefaultCacheMaxSize   = 1000
	DefaultCacheTTL       = 300 * time.Second
	DefaultUserAgent      = "flagx-go"
)

// Config holds all configuration for a flagx client.
// It is fixed once New returns.
type Config struct {
	// BaseURL is the root URL of the evaluation service
	// Example: "http://localhost:8080"
	BaseURL string `env:"FLAGX_BASE_URL"`

	// ConnectTimeout bounds establishing a connection
	ConnectTimeout time.Duration `env:"FLAGX_CONNECT_TIMEOUT"`

	// ReadTimeout bounds the whole remote call once issued
	ReadTimeout time.Duration `env:"FLAGX_READ_TIMEOUT"`

	// CacheMaxSize is the maximum number of cached flag/target entries
	CacheMaxSize int `env:"FLAGX_CACHE_MAX_SIZE"`

	// CacheTTL is how long a cached value is served
	CacheTTL time.Duration `env:"FLAGX_CACHE_TTL"`

	// DefaultValueOnError is returned when a flag cannot be resolved and
	// the call supplied no default of its own
	DefaultValueOnError bool `env:"FLAGX_DEFAULT_VALUE_ON_ERROR"`

	// EvictionPolicy selects the cache backend
	// Options: "lru", "tinylfu"
	EvictionPolicy EvictionPolicy `env:"FLAGX_EVICTION_POLICY"`

	// UserAgent is sent with every remote call
	UserAgent string `env:"FLAGX_USER_AGENT"`
}

// DefaultConfig returns recommended default configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:             DefaultBaseURL,
		ConnectTimeout:      DefaultConnectTimeout,
		ReadTimeout:         DefaultReadTimeout,
		CacheMaxSize:        DefaultCacheMaxSize,
		CacheTTL:            DefaultCacheTTL,
		DefaultValueOnError: false,
		EvictionPolicy:      EvictionLRU,
		UserAgent:           DefaultUserAgent,
	}
}

// LoadConfigFromEnv returns DefaultConfig overridden by any FLAGX_*
// environment variables that are set. Durations use time.ParseDuration
// syntax ("300s", "5m").
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, &ConfigError{Field: "env", Message: err.Error()}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return &ConfigError{Field: "BaseURL", Message: "cannot be empty"}
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return &ConfigError{Field: "BaseURL", Message: err.Error()}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ConfigError{Field: "BaseURL", Message: fmt.Sprintf("unsupported scheme %q", u.Scheme)}
	}
	if u.Host == "" {
		return &ConfigError{Field: "BaseURL", Message: "missing host"}
	}

	if c.ConnectTimeout <= 0 {
		return &ConfigError{Field: "ConnectTimeout", Message: "must be positive"}
	}
	if c.ReadTimeout <= 0 {
		return &ConfigError{Field: "ReadTimeout", Message: "must be positive"}
	}
	if c.CacheMaxSize <= 0 {
		return &ConfigError{Field: "CacheMaxSize", Message: "must be positive"}
	}
	if c.CacheTTL <= 0 {
		return &ConfigError{Field: "CacheTTL", Message: "must be positive"}
	}

	switch c.EvictionPolicy {
	case "", EvictionLRU, EvictionTinyLFU:
	default:
		return &ConfigError{Field: "EvictionPolicy", Message: fmt.Sprintf("invalid eviction policy: %s", c.EvictionPolicy)}
	}

	return nil
}
