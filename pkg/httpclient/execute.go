package httpclient

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/Amr-9/corehttp/internal/backoff"
	"github.com/Amr-9/corehttp/internal/classify"
	"github.com/Amr-9/corehttp/internal/envelope"
	"github.com/Amr-9/corehttp/internal/hooks"
	"go.uber.org/zap"
)

// callParams is the per-call override bundle a terminal verb passes
// through to execute, layered over the RequestCore's base config.
type callParams struct {
	endpoint string
	method   string
	params   map[string]string
	data     map[string]any
}

// retryEvent is the payload dispatched on hooks.Retry.
type retryEvent struct {
	Attempt int
	Reason  string
}

// synthetic builds a terminal failure Envelope for one of the synthetic
// 596-599 codes, which never originate from the wire (spec.md §7).
func synthetic(status int, message string) *envelope.Envelope {
	body := []byte(`{"message":"` + strings.ReplaceAll(message, `"`, `'`) + `"}`)
	return envelope.New(status, http.Header{}, body)
}

// Execute runs the retry loop of spec.md §4.8 for one call and returns
// the terminal Envelope. If cfg.HandleErrors is false and the call
// ultimately failed (context cancellation included, reported as a
// synthetic 599), the returned error is a *envelope.ApiError; callers who
// set HandleErrors(true) get a nil error and inspect
// env.Failed()/env.Message() instead. URL resolution, request build and
// auth-signing failures return a nil Envelope and that lower-level error
// whatever HandleErrors says.
func (r *RequestCore) Execute(ctx context.Context, call callParams) (*envelope.Envelope, error) {
	r.mu.Lock()
	cfg := r.cfg
	r.mu.Unlock()

	method := resolveMethod(cfg, call.method)
	targetURL, err := resolveURL(cfg, call.endpoint)
	if err != nil {
		return nil, err
	}

	r.bus.Dispatch(hooks.Before, struct {
		Method string
		URL    string
	}{method, targetURL})

	oauthRefreshed := false
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	policy := backoff.New(cfg.BaseDelay, cfg.MaxDelay, cfg.BackoffMode)

	for attempt := 0; attempt <= maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return r.finish(synthetic(classify.StatusNetwork, ctx.Err().Error()), cfg)
		default:
		}

		if !r.brk.Allowed() {
			env := synthetic(classify.StatusCircuitOpen, classify.KindCircuitBreaker.DefaultMessage())
			return r.finish(env, cfg)
		}

		if attempt > 0 {
			r.bus.Dispatch(hooks.Retry, retryEvent{Attempt: attempt})
		}

		if !r.limiter.Allow(call.endpoint, method) {
			env := synthetic(429, classify.KindRateLimit.DefaultMessage())
			return r.finish(env, cfg)
		}

		if env, ok := r.runDependencies(cfg); !ok {
			return r.finish(env, cfg)
		}

		if cfg.OAuth != nil && cfg.OAuth.Expired() {
			if err := r.refreshOAuth(ctx, cfg); err != nil {
				logger.Warn("oauth token refresh failed", zap.Error(err))
			}
		}

		built, err := buildRequest(ctx, cfg, method, targetURL, mergedParams(cfg, call.params), mergedData(cfg, call.data))
		if err != nil {
			return nil, err
		}

		applyHeaders(built.req, cfg)
		if err := r.applyAuth(built.req, built.body, cfg); err != nil {
			built.cleanup()
			return nil, err
		}

		resp, err := r.client.Do(built.req)
		built.cleanup()

		if err != nil {
			r.brk.Update(false)
			logger.Debug("transport error", zap.String("url", targetURL), zap.Error(err))
			if attempt < maxRetries {
				if serr := sleep(ctx, policy.Delay(attempt, nil)); serr != nil {
					return r.finish(synthetic(classify.StatusNetwork, serr.Error()), cfg)
				}
				continue
			}
			env := synthetic(classify.StatusNetwork, classify.KindNetwork.DefaultMessage())
			return r.finish(env, cfg)
		}

		bodyBytes, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		env := envelope.New(resp.StatusCode, resp.Header, bodyBytes)
		r.brk.Update(resp.StatusCode >= 200 && resp.StatusCode < 300)

		unauthenticated := classify.UnauthenticatedStatus(resp.StatusCode) || classify.UnauthenticatedBody(string(bodyBytes))
		if unauthenticated && cfg.OAuth != nil && attempt < maxRetries && !oauthRefreshed {
			oauthRefreshed = true
			if err := r.refreshOAuth(ctx, cfg); err != nil {
				logger.Warn("oauth refresh on 401 failed", zap.Error(err))
			}
			continue
		}

		if cfg.RetryCodes[resp.StatusCode] && attempt < maxRetries {
			if serr := sleep(ctx, policy.Delay(attempt, resp)); serr != nil {
				return r.finish(synthetic(classify.StatusNetwork, serr.Error()), cfg)
			}
			continue
		}

		return r.finish(env, cfg)
	}

	// unreachable: the loop always returns via r.finish before exhausting
	// attempts, but a defensive terminal response keeps the compiler and
	// any future refactor honest.
	env := synthetic(classify.StatusNetwork, classify.KindNetwork.DefaultMessage())
	return r.finish(env, cfg)
}

// runDependencies executes cfg.Dependencies in order; the first falsy
// return or error short-circuits the whole call without consuming a
// retry attempt, per SPEC_FULL.md §12 item 5.
func (r *RequestCore) runDependencies(cfg *RequestConfig) (*envelope.Envelope, bool) {
	for _, fn := range cfg.Dependencies {
		ok, err := fn()
		if err != nil {
			return synthetic(classify.StatusDependencyRuntime, err.Error()), false
		}
		if !ok {
			return synthetic(classify.StatusDependencyFailed, classify.KindDependencyFailed.DefaultMessage()), false
		}
	}
	return nil, true
}

// finish dispatches the terminal after/success/error hooks and resolves
// the (Envelope, error) pair per cfg.HandleErrors.
func (r *RequestCore) finish(env *envelope.Envelope, cfg *RequestConfig) (*envelope.Envelope, error) {
	r.bus.Dispatch(hooks.After, env)

	apiErr := envelope.NewAPIError(env)
	if apiErr == nil {
		r.bus.Dispatch(hooks.Success, env)
		return env, nil
	}

	r.bus.Dispatch(hooks.Error, apiErr)
	if cfg.HandleErrors {
		return env, nil
	}
	return env, apiErr
}

func (r *RequestCore) refreshOAuth(ctx context.Context, cfg *RequestConfig) error {
	return runOAuthFlow(ctx, r.client, cfg.OAuth)
}

func (r *RequestCore) applyAuth(req *http.Request, body []byte, cfg *RequestConfig) error {
	if cfg.OAuth != nil && cfg.OAuth.Token != "" {
		return cfg.OAuth.AuthHeader().Apply(req, body)
	}
	return cfg.AuthHeader.Apply(req, body)
}

func applyHeaders(req *http.Request, cfg *RequestConfig) {
	for k, vs := range cfg.Headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for k, v := range cfg.Cookies {
		req.AddCookie(&http.Cookie{Name: k, Value: v})
	}
}
