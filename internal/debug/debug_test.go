package debug

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Amr-9/corehttp/internal/validator"
	"github.com/Amr-9/corehttp/pkg/httpclient"
	"github.com/stretchr/testify/require"
)

func TestRunPrintsResponseAndPassesAssertions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	cfg := httpclient.DefaultConfig()
	cfg.BaseURL = srv.URL
	core, err := httpclient.New(cfg)
	require.NoError(t, err)
	defer core.Close()

	err = Run(core, http.MethodGet, "/health", nil, []validator.Assertion{
		{Kind: validator.Contains, Value: "ok"},
	})
	require.NoError(t, err)
}

func TestRunReportsTransportFailure(t *testing.T) {
	cfg := httpclient.DefaultConfig()
	cfg.BaseURL = "http://127.0.0.1:1"
	cfg.MaxRetries = 0
	core, err := httpclient.New(cfg)
	require.NoError(t, err)
	defer core.Close()

	err = Run(core, http.MethodGet, "/", nil, nil)
	require.NoError(t, err)
}
