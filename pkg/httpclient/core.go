package httpclient

import (
	"net/http"
	"sync"

	"github.com/Amr-9/corehttp/internal/auth"
	"github.com/Amr-9/corehttp/internal/backoff"
	"github.com/Amr-9/corehttp/internal/breaker"
	"github.com/Amr-9/corehttp/internal/hooks"
	"github.com/Amr-9/corehttp/internal/ratelimit"
	"go.uber.org/zap"
)

// RequestCore is the fluent, cloneable request object of spec.md §3/§6. It
// owns one RequestConfig plus the live runtime state that config drives
// (rate-limiter buckets, breaker counters, hook queue, transport client) —
// the state Clone explicitly does NOT share with the original.
type RequestCore struct {
	mu  sync.Mutex
	cfg *RequestConfig

	limiter *ratelimit.Limiter
	brk     *breaker.Breaker
	bus     *hooks.Bus
	client  *http.Client

	stopStream int32 // set by StopStream, consumed at Stream's next chunk boundary
}

// New builds a RequestCore from cfg, constructing its runtime state
// (limiter, breaker, hook bus, transport client) fresh.
func New(cfg *RequestConfig) (*RequestCore, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	client, err := buildHTTPClient(cfg.Transport, cfg.Timeout)
	if err != nil {
		return nil, err
	}

	limiter := ratelimit.New()
	for _, r := range cfg.RateRules {
		limiter.AddRule(r)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RequestCore{
		cfg:     cfg,
		limiter: limiter,
		brk:     breaker.New(cfg.BreakerThresh, cfg.BreakerCooldown),
		bus:     hooks.New(cfg.HookQueueCapacity, logger),
		client:  client,
	}, nil
}

// Clone produces an independent RequestCore: a deep copy of the config
// plus fresh runtime state — no shared transport client, rate-limiter
// buckets, breaker failure count, or hook queue — matching spec.md §3's
// "clone(deep) produces an independent copy sharing no live transport
// session" and §5's "Clones do not share sessions."
func (r *RequestCore) Clone() (*RequestCore, error) {
	r.mu.Lock()
	cfgCopy := r.cfg.clone()
	rules := r.limiter.Rules()
	busClone := r.bus.Clone()
	r.mu.Unlock()

	client, err := buildHTTPClient(cfgCopy.Transport, cfgCopy.Timeout)
	if err != nil {
		return nil, err
	}

	limiter := ratelimit.New()
	for _, rule := range rules {
		limiter.AddRule(rule)
	}

	return &RequestCore{
		cfg:     cfgCopy,
		limiter: limiter,
		brk:     breaker.New(cfgCopy.BreakerThresh, cfgCopy.BreakerCooldown),
		bus:     busClone,
		client:  client,
	}, nil
}

// Close releases the hook bus's worker goroutine. Safe to call multiple
// times; call when a RequestCore (or clone) is no longer needed.
func (r *RequestCore) Close() {
	r.bus.Close()
}

// --- fluent setters (spec.md §6 consumer API) ---

func (r *RequestCore) BaseURL(u string) *RequestCore {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg.BaseURL = u
	return r
}

func (r *RequestCore) Endpoint(e string) *RequestCore {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg.Endpoint = e
	return r
}

func (r *RequestCore) Timeout(seconds float64) *RequestCore {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg.Timeout = secondsToDuration(seconds)
	return r
}

func (r *RequestCore) Verify(ok bool) *RequestCore {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg.Transport.Verify = ok
	return r
}

func (r *RequestCore) Proxy(u string) *RequestCore {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg.Transport.Proxy = u
	return r
}

func (r *RequestCore) Impersonate(profile string) *RequestCore {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg.Transport.Impersonate = profile
	return r
}

// Headers merges (or, if reset, replaces) the base header set applied to
// every call.
func (r *RequestCore) Headers(h map[string]string, reset bool) *RequestCore {
	r.mu.Lock()
	defer r.mu.Unlock()
	if reset || r.cfg.Headers == nil {
		r.cfg.Headers = http.Header{}
	}
	for k, v := range h {
		r.cfg.Headers.Set(k, v)
	}
	return r
}

func (r *RequestCore) Cookies(c map[string]string, reset bool) *RequestCore {
	r.mu.Lock()
	defer r.mu.Unlock()
	if reset || r.cfg.Cookies == nil {
		r.cfg.Cookies = map[string]string{}
	}
	for k, v := range c {
		r.cfg.Cookies[k] = v
	}
	return r
}

func (r *RequestCore) Params(p map[string]string, reset bool) *RequestCore {
	r.mu.Lock()
	defer r.mu.Unlock()
	if reset || r.cfg.Params == nil {
		r.cfg.Params = map[string]string{}
	}
	for k, v := range p {
		r.cfg.Params[k] = v
	}
	return r
}

// Data merges (or replaces) the base JSON/form body fields.
func (r *RequestCore) Data(d map[string]any, reset bool) *RequestCore {
	r.mu.Lock()
	defer r.mu.Unlock()
	if reset || r.cfg.Data == nil {
		r.cfg.Data = map[string]any{}
	}
	for k, v := range d {
		r.cfg.Data[k] = v
	}
	return r
}

// Files appends normalized file inputs (paths, directories, readers,
// pre-shaped fileset.Part/Input records); see internal/fileset.
func (r *RequestCore) Files(items ...any) *RequestCore {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg.Files = append(r.cfg.Files, items...)
	return r
}

func (r *RequestCore) Token(token string) *RequestCore {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg.AuthHeader = auth.Header{Scheme: auth.Bearer, Token: token}
	return r
}

func (r *RequestCore) Bearer(token string) *RequestCore { return r.Token(token) }

func (r *RequestCore) Basic(id, secret string) *RequestCore {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg.AuthHeader = auth.Header{Scheme: auth.Basic, Username: id, Password: secret}
	return r
}

func (r *RequestCore) JWT(claims map[string]any, secret []byte) *RequestCore {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg.AuthHeader = auth.Header{Scheme: auth.JWT, JWTClaims: claims, JWTSecret: secret}
	return r
}

func (r *RequestCore) APIKeys(pub, sec, headerPub, headerSec string) *RequestCore {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg.AuthHeader = auth.Header{Scheme: auth.APIKey, Token: pub, HeaderName: headerPub}
	if headerSec != "" && sec != "" {
		r.cfg.Headers.Set(headerSec, sec)
	}
	return r
}

func (r *RequestCore) HMACSignature(secret, header string) *RequestCore {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg.AuthHeader = auth.Header{Scheme: auth.HMAC, Secret: secret, HeaderName: header}
	return r
}

// OAuth2 configures the client-credentials lifecycle; RequestCore.Execute
// refreshes the token on expiry and on detected-unauthenticated responses.
func (r *RequestCore) OAuth2(clientID, clientSecret, endpoint, scope, grant, tokenKey string) *RequestCore {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg.OAuth = auth.NewManager(clientID, clientSecret, endpoint, scope, grant, tokenKey)
	return r
}

func (r *RequestCore) Retry(max int, codes []int, mode string) *RequestCore {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg.MaxRetries = max
	if codes != nil {
		r.cfg.RetryCodes = make(map[int]bool, len(codes))
		for _, c := range codes {
			r.cfg.RetryCodes[c] = true
		}
	}
	if mode != "" {
		r.cfg.BackoffMode = backoff.Mode(mode)
	}
	return r
}

func (r *RequestCore) Delay(base, max float64) *RequestCore {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg.BaseDelay = secondsToDuration(base)
	r.cfg.MaxDelay = secondsToDuration(max)
	return r
}

func (r *RequestCore) Limit(rate int, perMin bool, endpoint, method string) *RequestCore {
	r.mu.Lock()
	defer r.mu.Unlock()
	window := secondsToDuration(60)
	if !perMin {
		window = secondsToDuration(1)
	}
	rule := ratelimit.Rule{Rate: rate, Window: window, Endpoint: endpoint, Method: method}
	r.cfg.RateRules = append(r.cfg.RateRules, rule)
	r.limiter.AddRule(rule)
	return r
}

func (r *RequestCore) Breaker(threshold int, cooldown float64) *RequestCore {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg.BreakerThresh = threshold
	r.cfg.BreakerCooldown = secondsToDuration(cooldown)
	r.brk = breaker.New(threshold, r.cfg.BreakerCooldown)
	return r
}

// Dependencies registers (or, if reset, replaces) pre-flight callbacks run
// before every attempt; a (false, nil) return is a terminal 596, a
// non-nil error is a terminal 597 (spec.md §4.8 step 4).
func (r *RequestCore) Dependencies(reset bool, fns ...func() (bool, error)) *RequestCore {
	r.mu.Lock()
	defer r.mu.Unlock()
	if reset {
		r.cfg.Dependencies = nil
	}
	r.cfg.Dependencies = append(r.cfg.Dependencies, fns...)
	return r
}

func (r *RequestCore) HandleErrors(ok bool) *RequestCore {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg.HandleErrors = ok
	return r
}

// OnBefore/OnAfter/... register hook handlers; see internal/hooks.
func (r *RequestCore) OnBefore(fns ...hooks.Handler) *RequestCore  { return r.on(hooks.Before, fns) }
func (r *RequestCore) OnAfter(fns ...hooks.Handler) *RequestCore   { return r.on(hooks.After, fns) }
func (r *RequestCore) OnRetry(fns ...hooks.Handler) *RequestCore   { return r.on(hooks.Retry, fns) }
func (r *RequestCore) OnSuccess(fns ...hooks.Handler) *RequestCore { return r.on(hooks.Success, fns) }
func (r *RequestCore) OnError(fns ...hooks.Handler) *RequestCore   { return r.on(hooks.Error, fns) }
func (r *RequestCore) OnStream(fns ...hooks.Handler) *RequestCore  { return r.on(hooks.Stream, fns) }
func (r *RequestCore) OnProgress(fns ...hooks.Handler) *RequestCore {
	return r.on(hooks.Progress, fns)
}

func (r *RequestCore) on(cat hooks.Category, fns []hooks.Handler) *RequestCore {
	for _, fn := range fns {
		r.bus.On(cat, fn)
	}
	return r
}

// ClearHooks removes every registered handler, matching clear_hooks.
func (r *RequestCore) ClearHooks() *RequestCore {
	r.bus.Clear()
	return r
}
