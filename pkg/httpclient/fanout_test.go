package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGatherPreservesOrderAcrossConcurrentCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"path":"` + r.URL.Path + `"}`))
	}))
	defer srv.Close()

	core := newTestCore(t, srv)
	list := []CallSpec{
		{Method: http.MethodGet, Endpoint: "/a"},
		{Method: http.MethodGet, Endpoint: "/b"},
		{Method: http.MethodGet, Endpoint: "/c"},
	}

	results, errs := core.Gather(context.Background(), list, 2)
	for i, err := range errs {
		require.NoError(t, err, "index %d", i)
	}
	assert.Equal(t, "/a", results[0].Data().(map[string]any)["path"])
	assert.Equal(t, "/b", results[1].Data().(map[string]any)["path"])
	assert.Equal(t, "/c", results[2].Data().(map[string]any)["path"])
}

func TestDosFiresCountIdenticalRequests(t *testing.T) {
	var count int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	core := newTestCore(t, srv)
	results, errs := core.Dos(context.Background(), 5, 3, http.MethodGet, "/ping")
	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Len(t, results, 5)
	assert.Equal(t, 5, count)
}
