// Package httpclient implements RequestCore, the fluent, cloneable HTTP
// client runtime of spec.md §3/§6: it composes every internal/* component
// (rate limiting, circuit breaking, backoff, classification, envelopes,
// auth, downloads, pagination, fan-out, hooks, resource dispatch) behind
// one builder. Grounded throughout on original_source/core/utils/api's
// base_request.py/request.py, in the structural idiom of the teacher's
// models.Config (a single plain struct carrying every tunable).
package httpclient

import (
	"net/http"
	"time"

	"github.com/Amr-9/corehttp/internal/auth"
	"github.com/Amr-9/corehttp/internal/backoff"
	"github.com/Amr-9/corehttp/internal/breaker"
	"github.com/Amr-9/corehttp/internal/fileset"
	"github.com/Amr-9/corehttp/internal/hooks"
	"github.com/Amr-9/corehttp/internal/ratelimit"
	"github.com/Amr-9/corehttp/internal/runtimeconfig"
	"go.uber.org/zap"
)

// TransportConfig mirrors spec.md §6's transport-identity parameters:
// TLS verification, proxy, and an opaque impersonation profile the
// transport layer passes through without interpreting.
type TransportConfig struct {
	Verify              bool
	Proxy               string
	Impersonate         string
	KeepAlive           bool
	ForceHTTP2          bool
	H2C                 bool
	MaxIdleConnsPerHost int
}

// RequestConfig is the immutable-by-clone record of spec.md §3: every
// fluent setter on RequestCore mutates it in place and returns the same
// *RequestCore, while Clone produces an independent copy sharing no live
// transport session, rate-limiter buckets, breaker counters, or hook
// queue — matching "clone(deep) produces an independent copy".
type RequestConfig struct {
	BaseURL  string
	Endpoint string
	Method   string
	Timeout  time.Duration

	Transport TransportConfig

	Headers http.Header
	Cookies map[string]string
	Params  map[string]string
	Data    map[string]any
	Files   []any

	Dependencies []func() (bool, error)

	AuthHeader auth.Header
	OAuth      *auth.Manager

	MaxRetries  int
	RetryCodes  map[int]bool
	BackoffMode backoff.Mode
	BaseDelay   time.Duration
	MaxDelay    time.Duration

	RateRules      []ratelimit.Rule
	BreakerThresh  int
	BreakerCooldown time.Duration

	GraphEndpoint string
	GraphQuery    string
	GraphVars     map[string]any

	HandleErrors bool

	HookQueueCapacity int

	Logger *zap.Logger
}

// DefaultConfig seeds a RequestConfig from runtimeconfig's operational
// defaults, the way the teacher wires pkg/config.LoadConfig's result into
// models.Config before starting a run.
func DefaultConfig() *RequestConfig {
	rc := runtimeconfig.Default()

	codes := make(map[int]bool, len(rc.Retry.RetryCodes))
	for _, c := range rc.Retry.RetryCodes {
		codes[c] = true
	}

	return &RequestConfig{
		Timeout: rc.Transport.Timeout,
		Transport: TransportConfig{
			Verify:              !rc.Transport.Insecure,
			KeepAlive:           rc.Transport.KeepAlive,
			ForceHTTP2:          rc.Transport.ForceHTTP2,
			MaxIdleConnsPerHost: rc.Transport.MaxIdleConnsPerHost,
		},
		Headers:         http.Header{},
		Cookies:         map[string]string{},
		Params:          map[string]string{},
		Data:            map[string]any{},
		MaxRetries:      rc.Retry.MaxRetries,
		RetryCodes:      codes,
		BackoffMode:     backoff.Mode(rc.Retry.BackoffMode),
		BaseDelay:       rc.Retry.BaseDelay,
		MaxDelay:        rc.Retry.MaxDelay,
		BreakerThresh:   rc.CircuitBreaker.Threshold,
		BreakerCooldown: rc.CircuitBreaker.Cooldown,
		HookQueueCapacity: rc.HookQueueCapacity,
		Logger:          zap.NewNop(),
	}
}

// FromRuntimeConfig seeds a RequestConfig from an explicitly loaded
// runtimeconfig.Config (e.g. read from an operator-supplied YAML file),
// rather than the built-in defaults.
func FromRuntimeConfig(rc *runtimeconfig.Config) *RequestConfig {
	cfg := DefaultConfig()
	if rc == nil {
		return cfg
	}

	codes := make(map[int]bool, len(rc.Retry.RetryCodes))
	for _, c := range rc.Retry.RetryCodes {
		codes[c] = true
	}

	cfg.MaxRetries = rc.Retry.MaxRetries
	cfg.RetryCodes = codes
	cfg.BackoffMode = backoff.Mode(rc.Retry.BackoffMode)
	cfg.BaseDelay = rc.Retry.BaseDelay
	cfg.MaxDelay = rc.Retry.MaxDelay
	cfg.BreakerThresh = rc.CircuitBreaker.Threshold
	cfg.BreakerCooldown = rc.CircuitBreaker.Cooldown
	cfg.HookQueueCapacity = rc.HookQueueCapacity
	cfg.Timeout = rc.Transport.Timeout
	cfg.Transport.Verify = !rc.Transport.Insecure
	cfg.Transport.KeepAlive = rc.Transport.KeepAlive
	cfg.Transport.ForceHTTP2 = rc.Transport.ForceHTTP2
	cfg.Transport.MaxIdleConnsPerHost = rc.Transport.MaxIdleConnsPerHost
	return cfg
}

// clone deep-copies every map/slice field so the result shares no
// mutable state with the receiver, matching spec.md §3's clone(deep)
// invariant and §8's round-trip law.
func (c *RequestConfig) clone() *RequestConfig {
	cp := *c

	cp.Headers = c.Headers.Clone()
	if cp.Headers == nil {
		cp.Headers = http.Header{}
	}

	cp.Cookies = copyStringMap(c.Cookies)
	cp.Params = copyStringMap(c.Params)
	cp.Data = copyAnyMap(c.Data)
	cp.Files = append([]any(nil), c.Files...)
	cp.Dependencies = append([]func() (bool, error)(nil), c.Dependencies...)
	cp.RetryCodes = copyIntBoolMap(c.RetryCodes)
	cp.RateRules = append([]ratelimit.Rule(nil), c.RateRules...)
	cp.GraphVars = copyAnyMap(c.GraphVars)

	return &cp
}

func copyStringMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyAnyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyIntBoolMap(m map[int]bool) map[int]bool {
	out := make(map[int]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// fileSetRecords flattens Files into a normalized part list via
// internal/fileset, eagerly reading bytes (non-chunked) since multipart
// assembly happens per-attempt.
func (c *RequestConfig) fileSetRecords() ([]fileset.Part, error) {
	return fileset.Normalize(false, c.Files...)
}
