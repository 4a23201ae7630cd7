package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Amr-9/corehttp/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunOAuthFlowAppliesPrimaryBasicAuthToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "id" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"access_token":"tok-123","token_type":"Bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	mgr := auth.NewManager("id", "secret", srv.URL, "", "", "")
	client := srv.Client()

	err := runOAuthFlow(context.Background(), client, mgr)
	require.NoError(t, err)
	assert.Equal(t, "tok-123", mgr.Token)
	assert.False(t, mgr.Expired())
}

func TestRunOAuthFlowFallsBackToBodyCredentialsOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, _, ok := r.BasicAuth(); ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "id", r.FormValue("client_id"))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"access_token":"fallback-tok"}`))
	}))
	defer srv.Close()

	mgr := auth.NewManager("id", "secret", srv.URL, "", "", "")
	err := runOAuthFlow(context.Background(), srv.Client(), mgr)
	require.NoError(t, err)
	assert.Equal(t, "fallback-tok", mgr.Token)
}
