package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadWritesFullBodyWhenNotResuming(t *testing.T) {
	content := []byte("hello world, this is downloaded content")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", len(content)))
		w.WriteHeader(http.StatusOK)
		w.Write(content)
	}))
	defer srv.Close()

	core := newTestCore(t, srv)
	dest := filepath.Join(t.TempDir(), "out.bin")

	n, err := core.Download(context.Background(), "/file", dest, false)
	require.NoError(t, err)
	assert.EqualValues(t, len(content), n)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestDownloadResumesFromExistingPartialFile(t *testing.T) {
	full := []byte("0123456789ABCDEF")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rangeHeader := r.Header.Get("Range")
		if rangeHeader == "" {
			w.WriteHeader(http.StatusOK)
			w.Write(full)
			return
		}
		var start int
		fmt.Sscanf(rangeHeader, "bytes=%d-", &start)
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, len(full)-1, len(full)))
		w.WriteHeader(http.StatusPartialContent)
		w.Write(full[start:])
	}))
	defer srv.Close()

	core := newTestCore(t, srv)
	dest := filepath.Join(t.TempDir(), "resume.bin")
	require.NoError(t, os.WriteFile(dest, full[:8], 0o644))

	n, err := core.Download(context.Background(), "/file", dest, true)
	require.NoError(t, err)
	assert.EqualValues(t, len(full), n)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, full, got)
}

func TestDownloadTreats416AsAlreadyComplete(t *testing.T) {
	full := []byte("complete-file-contents")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Range") != "" {
			w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
			return
		}
		w.Write(full)
	}))
	defer srv.Close()

	core := newTestCore(t, srv)
	dest := filepath.Join(t.TempDir(), "done.bin")
	require.NoError(t, os.WriteFile(dest, full, 0o644))

	n, err := core.Download(context.Background(), "/file", dest, true)
	require.NoError(t, err)
	assert.EqualValues(t, len(full), n)
}
