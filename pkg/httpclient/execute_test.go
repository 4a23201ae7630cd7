package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCore(t *testing.T, srv *httptest.Server) *RequestCore {
	t.Helper()
	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.BaseDelay = time.Millisecond
	cfg.MaxDelay = 5 * time.Millisecond
	core, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(core.Close)
	return core
}

func TestExecuteRetriesOnConfiguredStatusThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	core := newTestCore(t, srv)
	core.Retry(3, []int{503}, "exponential")

	env, err := core.Get("/thing")
	require.NoError(t, err)
	assert.True(t, env.Success())
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestExecuteExhaustsRetriesAndReturnsApiError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	core := newTestCore(t, srv)
	core.Retry(1, []int{503}, "exponential")

	env, err := core.Get("/thing")
	require.Error(t, err)
	assert.True(t, env.Failed())
}

func TestExecuteHandleErrorsSuppressesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	core := newTestCore(t, srv)
	core.HandleErrors(true)

	env, err := core.Get("/missing")
	require.NoError(t, err)
	assert.True(t, env.Failed())
}

func TestExecuteDependencyFailureShortCircuitsWithoutCallingTransport(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	core := newTestCore(t, srv)
	core.Dependencies(false, func() (bool, error) { return false, nil })

	env, err := core.Get("/thing")
	require.Error(t, err)
	assert.Equal(t, 596, env.Status)
	assert.EqualValues(t, 0, atomic.LoadInt32(&calls))
}

func TestExecuteCircuitBreakerOpensAfterThreshold(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	core := newTestCore(t, srv)
	core.Breaker(2, 60)
	core.Retry(0, []int{}, "exponential")

	_, _ = core.Get("/thing")
	_, _ = core.Get("/thing")

	env, err := core.Get("/thing")
	require.Error(t, err)
	assert.Equal(t, 598, env.Status)
}

func TestExecuteRateLimitDeniesOverQuota(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	core := newTestCore(t, srv)
	core.Limit(1, false, "/thing", "GET")

	_, err := core.Get("/thing")
	require.NoError(t, err)

	env, err := core.Get("/thing")
	require.Error(t, err)
	assert.Equal(t, 429, env.Status)
}

func TestExecuteRespectsContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	core := newTestCore(t, srv)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := core.Execute(ctx, callParams{endpoint: "/thing", method: http.MethodGet})
	require.Error(t, err)
}
