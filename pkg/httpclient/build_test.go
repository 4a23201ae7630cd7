package httpclient

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildJSONRequestSetsContentTypeAndBody(t *testing.T) {
	built, err := buildJSONRequest(context.Background(), http.MethodPost, "https://example.test/x", map[string]any{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, "application/json", built.req.Header.Get("Content-Type"))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(built.body, &decoded))
	assert.EqualValues(t, 1, decoded["a"])
}

func TestBuildQueryRequestEncodesParams(t *testing.T) {
	built, err := buildQueryRequest(context.Background(), http.MethodGet, "https://example.test/x", map[string]string{"q": "hi there"})
	require.NoError(t, err)
	assert.Equal(t, "hi there", built.req.URL.Query().Get("q"))
}

func TestBuildGraphQLRequestDefaultsToPost(t *testing.T) {
	built, err := buildGraphQLRequest(context.Background(), "", "https://example.test/graphql", "query { x }", map[string]any{"id": 1})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, built.req.Method)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(built.body, &decoded))
	assert.Equal(t, "query { x }", decoded["query"])
}

func TestBuildMultipartRequestSetsMultipartContentType(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Files = []any{}

	built, err := buildMultipartRequest(context.Background(), http.MethodPost, "https://example.test/upload", cfg, map[string]any{
		"name":  "ada",
		"count": 3,
	})
	require.NoError(t, err)

	mediaType, params, err := mime.ParseMediaType(built.req.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/form-data", mediaType)
	assert.NotEmpty(t, params["boundary"])
}

func TestResolveMethodDefaultsToPostWhenFilesPresent(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Files = []any{"whatever"}
	assert.Equal(t, http.MethodPost, resolveMethod(cfg, ""))
}

func TestResolveMethodDefaultsToPostForGraphQL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GraphQuery = "query { x }"
	assert.Equal(t, http.MethodPost, resolveMethod(cfg, ""))
}

func TestResolveURLJoinsBaseAndEndpoint(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseURL = "https://example.test/api/"
	got, err := resolveURL(cfg, "v1/things")
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/api/v1/things", got)
}

func drain(t *testing.T, r io.ReadCloser) string {
	t.Helper()
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(b)
}
