package httpclient

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Amr-9/corehttp/internal/fileset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphRestoresBaseQueryAfterCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"data":{}}`))
	}))
	defer srv.Close()

	core := newTestCore(t, srv)
	core.cfg.GraphQuery = "query { base }"

	_, err := core.Graph("query { oneOff }", map[string]any{"x": 1})
	require.NoError(t, err)

	assert.Equal(t, "query { base }", core.cfg.GraphQuery)
}

func TestGraphRestoresBaseQueryEvenOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	core := newTestCore(t, srv)
	core.cfg.GraphQuery = "query { base }"

	_, err := core.Graph("query { oneOff }", nil)
	require.Error(t, err)

	assert.Equal(t, "query { base }", core.cfg.GraphQuery)
}

func TestUploadSendsMultipartAndDoesNotPersistFiles(t *testing.T) {
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	core := newTestCore(t, srv)
	part := fileset.Part{Name: "file", Filename: "a.txt", Data: []byte("hi")}
	_, err := core.Upload([]any{part}, "/upload", map[string]any{"field": "value"})
	require.NoError(t, err)
	assert.Contains(t, gotContentType, "multipart/form-data")
	assert.Empty(t, core.cfg.Files)
}
