package httpclient

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Amr-9/corehttp/internal/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallEncodesParamsAsQueryForGet(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"data":{"id":7}}`))
	}))
	defer srv.Close()

	core := newTestCore(t, srv)
	result, err := core.Call(http.MethodGet, "/users", map[string]any{"page": 2})
	require.NoError(t, err)

	assert.Contains(t, gotQuery, "page=2")
	model, ok := result.(resource.Model)
	require.True(t, ok)
	assert.EqualValues(t, 7, model.Get("id"))
}

func TestCallEncodesParamsAsBodyForPost(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = string(buf)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"data":{"created":true}}`))
	}))
	defer srv.Close()

	core := newTestCore(t, srv)
	_, err := core.Call(http.MethodPost, "/users", map[string]any{"name": "ada"})
	require.NoError(t, err)
	assert.Contains(t, gotBody, `"name":"ada"`)
}

func TestResourceChainDispatchesTaggedVerbToExpectedMethodAndPath(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"data":{}}`))
	}))
	defer srv.Close()

	core := newTestCore(t, srv)
	res := core.Resource("users", "123", "posts")
	_, err := res.List(nil)
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, gotMethod)
	assert.Equal(t, "/users/123/posts", gotPath)
}
