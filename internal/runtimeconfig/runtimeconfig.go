// Package runtimeconfig loads RequestCore's operational defaults (retry,
// backoff, circuit breaker, rate-limit rules, transport) from a YAML file,
// the way pkg/config.LoadConfig loads a load-test scenario file in the
// teacher — generalized here to the HTTP client runtime's own config
// shape instead of a scenario definition (SPEC_FULL.md §10.3).
package runtimeconfig

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// YAMLConfig mirrors the teacher's pkg/config.YAMLConfig shape: a nested,
// yaml-tagged struct with string durations parsed on load rather than
// relying on yaml.v3's limited native duration support.
type YAMLConfig struct {
	Retry struct {
		MaxRetries  int      `yaml:"max_retries,omitempty"`
		RetryCodes  []int    `yaml:"retry_codes,omitempty"`
		BackoffMode string   `yaml:"backoff_mode,omitempty"` // exponential | jitter | decorrelated
		BaseDelay   string   `yaml:"base_delay,omitempty"`
		MaxDelay    string   `yaml:"max_delay,omitempty"`
		_           struct{} `yaml:"-"`
	} `yaml:"retry"`

	CircuitBreaker struct {
		Threshold int    `yaml:"threshold,omitempty"`
		Cooldown  string `yaml:"cooldown,omitempty"`
	} `yaml:"circuit_breaker"`

	RateLimits []struct {
		Endpoint string `yaml:"endpoint,omitempty"`
		Method   string `yaml:"method,omitempty"`
		Rate     int    `yaml:"rate"`
		Window   string `yaml:"window"`
	} `yaml:"rate_limits,omitempty"`

	Transport struct {
		Timeout            string `yaml:"timeout,omitempty"`
		Insecure            bool   `yaml:"insecure,omitempty"`
		KeepAlive          bool   `yaml:"keep_alive,omitempty"`
		MaxIdleConnsPerHost int    `yaml:"max_idle_conns_per_host,omitempty"`
		ForceHTTP2         bool   `yaml:"force_http2,omitempty"`
	} `yaml:"transport"`

	Hooks struct {
		QueueCapacity int `yaml:"queue_capacity,omitempty"`
	} `yaml:"hooks"`
}

// RetryConfig is the resolved, duration-parsed retry/backoff policy.
type RetryConfig struct {
	MaxRetries  int
	RetryCodes  []int
	BackoffMode string
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// CircuitBreakerConfig is the resolved breaker policy.
type CircuitBreakerConfig struct {
	Threshold int
	Cooldown  time.Duration
}

// RateLimitRule is one resolved rate-limit rule.
type RateLimitRule struct {
	Endpoint string
	Method   string
	Rate     int
	Window   time.Duration
}

// TransportConfig is the resolved HTTP transport policy.
type TransportConfig struct {
	Timeout             time.Duration
	Insecure            bool
	KeepAlive           bool
	MaxIdleConnsPerHost int
	ForceHTTP2          bool
}

// Config is the fully-resolved runtime configuration, ready to build a
// RequestCore's default policy layer from.
type Config struct {
	Retry          RetryConfig
	CircuitBreaker CircuitBreakerConfig
	RateLimits     []RateLimitRule
	Transport      TransportConfig
	HookQueueCapacity int
}

// Default returns the built-in defaults used when no config file is
// supplied, matching spec.md §3's documented default constants.
func Default() *Config {
	return &Config{
		Retry: RetryConfig{
			MaxRetries:  2,
			RetryCodes:  []int{408, 429, 500, 502, 503, 504},
			BackoffMode: "exponential",
			BaseDelay:   200 * time.Millisecond,
			MaxDelay:    10 * time.Second,
		},
		CircuitBreaker: CircuitBreakerConfig{
			Threshold: 5,
			Cooldown:  30 * time.Second,
		},
		Transport: TransportConfig{
			Timeout:             30 * time.Second,
			MaxIdleConnsPerHost: 10,
		},
		HookQueueCapacity: 256,
	}
}

// Load reads path and resolves it into a Config, layered over Default()
// so a config file only needs to override what it cares about — matching
// LoadConfig's "read file, unmarshal into typed struct, translate into
// runtime types" shape.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read runtime config: %w", err)
	}

	var y YAMLConfig
	if err := yaml.Unmarshal(data, &y); err != nil {
		return nil, fmt.Errorf("parse runtime config: %w", err)
	}

	cfg := Default()

	if y.Retry.MaxRetries > 0 {
		cfg.Retry.MaxRetries = y.Retry.MaxRetries
	}
	if len(y.Retry.RetryCodes) > 0 {
		cfg.Retry.RetryCodes = y.Retry.RetryCodes
	}
	if y.Retry.BackoffMode != "" {
		cfg.Retry.BackoffMode = y.Retry.BackoffMode
	}
	if d, err := parseDuration(y.Retry.BaseDelay); err == nil && d > 0 {
		cfg.Retry.BaseDelay = d
	} else if y.Retry.BaseDelay != "" {
		return nil, fmt.Errorf("parse retry.base_delay: %w", err)
	}
	if d, err := parseDuration(y.Retry.MaxDelay); err == nil && d > 0 {
		cfg.Retry.MaxDelay = d
	} else if y.Retry.MaxDelay != "" {
		return nil, fmt.Errorf("parse retry.max_delay: %w", err)
	}

	if y.CircuitBreaker.Threshold > 0 {
		cfg.CircuitBreaker.Threshold = y.CircuitBreaker.Threshold
	}
	if d, err := parseDuration(y.CircuitBreaker.Cooldown); err == nil && d > 0 {
		cfg.CircuitBreaker.Cooldown = d
	} else if y.CircuitBreaker.Cooldown != "" {
		return nil, fmt.Errorf("parse circuit_breaker.cooldown: %w", err)
	}

	for _, r := range y.RateLimits {
		window, err := parseDuration(r.Window)
		if err != nil {
			return nil, fmt.Errorf("parse rate_limits[].window: %w", err)
		}
		cfg.RateLimits = append(cfg.RateLimits, RateLimitRule{
			Endpoint: r.Endpoint, Method: r.Method, Rate: r.Rate, Window: window,
		})
	}

	if d, err := parseDuration(y.Transport.Timeout); err == nil && d > 0 {
		cfg.Transport.Timeout = d
	} else if y.Transport.Timeout != "" {
		return nil, fmt.Errorf("parse transport.timeout: %w", err)
	}
	cfg.Transport.Insecure = y.Transport.Insecure
	cfg.Transport.KeepAlive = y.Transport.KeepAlive
	cfg.Transport.ForceHTTP2 = y.Transport.ForceHTTP2
	if y.Transport.MaxIdleConnsPerHost > 0 {
		cfg.Transport.MaxIdleConnsPerHost = y.Transport.MaxIdleConnsPerHost
	}

	if y.Hooks.QueueCapacity > 0 {
		cfg.HookQueueCapacity = y.Hooks.QueueCapacity
	}

	return cfg, nil
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
