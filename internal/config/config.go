// Package config loads the PDP server's configuration from environment
// variables, following the teacher framework's LoadFromEnv/functional-options
// shape (core/config.go in the gomind framework this server is built from):
// an explicit os.Getenv pass with defaults applied inline, plus an Option
// slice for programmatic overrides used by tests.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/permitio/pdp-sidecar/core"
)

// CacheStore selects the cache backend implementation.
type CacheStore string

const (
	CacheStoreInMemory CacheStore = "in-memory"
	CacheStoreRedis    CacheStore = "redis"
	CacheStoreNone     CacheStore = "none"
)

// Config is the fully-resolved PDP server configuration.
type Config struct {
	Port int
	Host string

	APIKey string
	Debug  bool

	OPAURL          string
	OPAQueryTimeout time.Duration

	HorizonHost string
	HorizonPort int

	// SuperviseChild decides whether the server spawns and watchdogs the
	// Horizon child process at all. The original source carries two
	// sibling entry points, one of which never supervises a child; this
	// flag makes that choice explicit instead of leaving it ambiguous
	// (see DESIGN.md Open Question #1).
	SuperviseChild bool

	CacheStore             CacheStore
	CacheTTLSeconds        int
	CacheMemoryCapacityMiB int
	CacheRedisURL          string

	CORSEnabled bool

	// AllowUnauthenticatedTrino exempts the /trino/... route group from the
	// bearer-token requirement applied to every other authenticated route,
	// matching the original's allow_unauthenticated_trino config flag.
	AllowUnauthenticatedTrino bool
}

// Option mutates a Config during construction, used by tests to override
// individual fields without going through the environment.
type Option func(*Config) error

// NewConfig builds a Config from the environment and applies opts in order.
func NewConfig(opts ...Option) (*Config, error) {
	cfg := &Config{
		Port:                   7766,
		Host:                   "0.0.0.0",
		Debug:                  false,
		OPAURL:                 "http://localhost:8181",
		OPAQueryTimeout:        1 * time.Second,
		HorizonHost:            "0.0.0.0",
		HorizonPort:            7001,
		SuperviseChild:         true,
		CacheStore:             CacheStoreNone,
		CacheTTLSeconds:        3600,
		CacheMemoryCapacityMiB: 128,
		CORSEnabled:            false,
	}

	if path := os.Getenv("PDP_CONFIG_FILE"); path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, err
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// fileOverlay mirrors Config with pointer fields so an absent YAML key
// leaves the corresponding Config field untouched rather than zeroing it.
// Field names are a subset of Config: the listener, cache, CORS and
// unauthenticated-Trino knobs. The child-process fields and the API key are
// environment-only, so secrets never need to live in the file.
type fileOverlay struct {
	Port                      *int    `yaml:"port"`
	Host                      *string `yaml:"host"`
	CacheStore                *string `yaml:"cache_store"`
	CacheTTLSeconds           *int    `yaml:"cache_ttl_seconds"`
	CacheMemoryCapacityMiB    *int    `yaml:"cache_memory_capacity_mib"`
	CacheRedisURL             *string `yaml:"cache_redis_url"`
	CORSEnabled               *bool   `yaml:"cors_enabled"`
	AllowUnauthenticatedTrino *bool   `yaml:"allow_unauthenticated_trino"`
}

// loadFromFile applies a YAML overlay read from path on top of the built-in
// defaults. Values are later re-overridden by whichever PDP_* environment
// variables are set, so the file is a base layer, not the final word.
func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("PDP_CONFIG_FILE %q: %w", path, core.ErrInvalidConfiguration)
	}

	var overlay fileOverlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("PDP_CONFIG_FILE %q: %w", path, core.ErrInvalidConfiguration)
	}

	if overlay.Port != nil {
		c.Port = *overlay.Port
	}
	if overlay.Host != nil {
		c.Host = *overlay.Host
	}
	if overlay.CacheStore != nil {
		switch CacheStore(*overlay.CacheStore) {
		case CacheStoreInMemory, CacheStoreRedis, CacheStoreNone:
			c.CacheStore = CacheStore(*overlay.CacheStore)
		default:
			return fmt.Errorf("PDP_CONFIG_FILE cache_store %q: %w", *overlay.CacheStore, core.ErrInvalidConfiguration)
		}
	}
	if overlay.CacheTTLSeconds != nil {
		c.CacheTTLSeconds = *overlay.CacheTTLSeconds
	}
	if overlay.CacheMemoryCapacityMiB != nil {
		c.CacheMemoryCapacityMiB = *overlay.CacheMemoryCapacityMiB
	}
	if overlay.CacheRedisURL != nil {
		c.CacheRedisURL = *overlay.CacheRedisURL
	}
	if overlay.CORSEnabled != nil {
		c.CORSEnabled = *overlay.CORSEnabled
	}
	if overlay.AllowUnauthenticatedTrino != nil {
		c.AllowUnauthenticatedTrino = *overlay.AllowUnauthenticatedTrino
	}

	return nil
}

func (c *Config) loadFromEnv() error {
	if v := os.Getenv("PDP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PDP_PORT: %w", core.ErrInvalidConfiguration)
		}
		c.Port = port
	}

	if v := os.Getenv("PDP_HOST"); v != "" {
		c.Host = v
	}

	if v := os.Getenv("PDP_API_KEY"); v != "" {
		c.APIKey = v
	}

	if v := os.Getenv("PDP_DEBUG"); v != "" {
		c.Debug = v == "true" || v == "1"
	}

	if v := os.Getenv("PDP_OPA_URL"); v != "" {
		c.OPAURL = v
	}

	if v := os.Getenv("PDP_OPA_QUERY_TIMEOUT"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PDP_OPA_QUERY_TIMEOUT: %w", core.ErrInvalidConfiguration)
		}
		c.OPAQueryTimeout = time.Duration(secs) * time.Second
	}

	if v := os.Getenv("PDP_HORIZON_HOST"); v != "" {
		c.HorizonHost = v
	}

	if v := os.Getenv("PDP_HORIZON_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PDP_HORIZON_PORT: %w", core.ErrInvalidConfiguration)
		}
		c.HorizonPort = port
	}

	if v := os.Getenv("PDP_SUPERVISE_CHILD"); v != "" {
		c.SuperviseChild = v == "true" || v == "1"
	}

	if v := os.Getenv("PDP_CACHE_STORE"); v != "" {
		switch CacheStore(v) {
		case CacheStoreInMemory, CacheStoreRedis, CacheStoreNone:
			c.CacheStore = CacheStore(v)
		default:
			return fmt.Errorf("PDP_CACHE_STORE %q: %w", v, core.ErrInvalidConfiguration)
		}
	}

	if v := os.Getenv("PDP_CACHE_TTL"); v != "" {
		ttl, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PDP_CACHE_TTL: %w", core.ErrInvalidConfiguration)
		}
		c.CacheTTLSeconds = ttl
	}

	if v := os.Getenv("PDP_CACHE_MEMORY_CAPACITY"); v != "" {
		cap, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PDP_CACHE_MEMORY_CAPACITY: %w", core.ErrInvalidConfiguration)
		}
		c.CacheMemoryCapacityMiB = cap
	}

	if v := os.Getenv("PDP_CACHE_REDIS_URL"); v != "" {
		c.CacheRedisURL = v
	}

	if v := os.Getenv("PDP_CORS_ENABLED"); v != "" {
		c.CORSEnabled = v == "true" || v == "1"
	}

	if v := os.Getenv("PDP_ALLOW_UNAUTHENTICATED_TRINO"); v != "" {
		c.AllowUnauthenticatedTrino = v == "true" || v == "1"
	}

	return nil
}

func (c *Config) validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("PDP_API_KEY is required: %w", core.ErrMissingConfiguration)
	}
	if c.CacheStore == CacheStoreRedis && c.CacheRedisURL == "" {
		return fmt.Errorf("PDP_CACHE_REDIS_URL is required when PDP_CACHE_STORE=redis: %w", core.ErrMissingConfiguration)
	}
	return nil
}

// WithAPIKey overrides the API key, bypassing the environment. Used by tests.
func WithAPIKey(key string) Option {
	return func(c *Config) error {
		c.APIKey = key
		return nil
	}
}

// WithCacheStore overrides the cache backend selection.
func WithCacheStore(store CacheStore) Option {
	return func(c *Config) error {
		c.CacheStore = store
		return nil
	}
}

// HorizonBaseURL returns the base URL of the supervised child.
func (c *Config) HorizonBaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.HorizonHost, c.HorizonPort)
}
