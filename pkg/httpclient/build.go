package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/Amr-9/corehttp/internal/fileset"
)

// resolveMethod applies spec.md §4.8's "method defaults to POST when
// files/paths are present" rule.
func resolveMethod(cfg *RequestConfig, override string) string {
	if override != "" {
		return strings.ToUpper(override)
	}
	if cfg.Method != "" {
		return strings.ToUpper(cfg.Method)
	}
	if len(cfg.Files) > 0 || cfg.GraphQuery != "" {
		return http.MethodPost
	}
	return http.MethodGet
}

// resolveURL joins BaseURL and an endpoint override (falling back to
// cfg.Endpoint), matching base_url(u)/endpoint(e)'s "resolve endpoint
// relative to base" contract.
func resolveURL(cfg *RequestConfig, endpointOverride string) (string, error) {
	ep := endpointOverride
	if ep == "" {
		ep = cfg.Endpoint
	}

	if cfg.BaseURL == "" {
		if ep == "" {
			return "", fmt.Errorf("httpclient: no base URL or endpoint configured")
		}
		return ep, nil
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return "", fmt.Errorf("httpclient: invalid base URL: %w", err)
	}
	ref, err := url.Parse(ep)
	if err != nil {
		return "", fmt.Errorf("httpclient: invalid endpoint: %w", err)
	}
	return base.ResolveReference(ref).String(), nil
}

// mergedParams combines cfg.Params with a per-call override map, the
// override winning on key collision.
func mergedParams(cfg *RequestConfig, override map[string]string) map[string]string {
	out := make(map[string]string, len(cfg.Params)+len(override))
	for k, v := range cfg.Params {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

// mergedData combines cfg.Data with a per-call override map.
func mergedData(cfg *RequestConfig, override map[string]any) map[string]any {
	out := make(map[string]any, len(cfg.Data)+len(override))
	for k, v := range cfg.Data {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

// builtRequest is everything one attempt needs: the *http.Request plus the
// raw body bytes (for HMAC signing) and a cleanup func releasing any
// multipart resources, matching spec.md §4.8's "multipart encoder scoped
// to one attempt, closed on every exit path."
type builtRequest struct {
	req     *http.Request
	body    []byte
	cleanup func()
}

// buildRequest assembles one attempt's *http.Request per spec.md §4.8
// step 5/6: GraphQL overrides the body outright; multipart builds a parts
// list from files plus scalarized form fields; otherwise GET/DELETE/HEAD/
// OPTIONS carry params on the query string and POST/PUT/PATCH carry the
// merged data as a JSON body.
func buildRequest(ctx context.Context, cfg *RequestConfig, method, targetURL string, params map[string]string, data map[string]any) (*builtRequest, error) {
	switch {
	case cfg.GraphQuery != "":
		return buildGraphQLRequest(ctx, method, targetURL, cfg.GraphQuery, mergedGraphVars(cfg, data))

	case len(cfg.Files) > 0:
		return buildMultipartRequest(ctx, method, targetURL, cfg, data)

	case method == http.MethodGet || method == http.MethodDelete || method == http.MethodHead || method == http.MethodOptions:
		return buildQueryRequest(ctx, method, targetURL, params)

	default:
		return buildJSONRequest(ctx, method, targetURL, data)
	}
}

func mergedGraphVars(cfg *RequestConfig, override map[string]any) map[string]any {
	out := make(map[string]any, len(cfg.GraphVars)+len(override))
	for k, v := range cfg.GraphVars {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

func buildGraphQLRequest(ctx context.Context, method, targetURL, query string, vars map[string]any) (*builtRequest, error) {
	if method == "" {
		method = http.MethodPost
	}
	payload := map[string]any{"query": query, "variables": vars}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, targetURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return &builtRequest{req: req, body: body, cleanup: func() {}}, nil
}

func buildQueryRequest(ctx context.Context, method, targetURL string, params map[string]string) (*builtRequest, error) {
	u, err := url.Parse(targetURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, err
	}
	return &builtRequest{req: req, cleanup: func() {}}, nil
}

func buildJSONRequest(ctx context.Context, method, targetURL string, data map[string]any) (*builtRequest, error) {
	var body []byte
	var err error
	if len(data) > 0 {
		body, err = json.Marshal(data)
		if err != nil {
			return nil, err
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, targetURL, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return &builtRequest{req: req, body: body, cleanup: func() {}}, nil
}

// buildMultipartRequest builds a parts list from cfg.Files (normalized
// via internal/fileset) plus every data field scalarized to its
// JSON-encoded string form, matching spec.md §4.8 step 5's "multipart:
// build a parts list from files plus scalarized JSON-encoded form
// fields."
func buildMultipartRequest(ctx context.Context, method, targetURL string, cfg *RequestConfig, data map[string]any) (*builtRequest, error) {
	parts, err := cfg.fileSetRecords()
	if err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)

	for _, p := range parts {
		content, err := partBytes(p)
		if err != nil {
			mw.Close()
			return nil, err
		}
		fw, err := mw.CreateFormFile(fieldName(p), p.Filename)
		if err != nil {
			mw.Close()
			return nil, err
		}
		if _, err := fw.Write(content); err != nil {
			mw.Close()
			return nil, err
		}
	}

	for k, v := range data {
		scalar, err := scalarize(v)
		if err != nil {
			mw.Close()
			return nil, err
		}
		if err := mw.WriteField(k, scalar); err != nil {
			mw.Close()
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}

	body := buf.Bytes()
	req, err := http.NewRequestWithContext(ctx, method, targetURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return &builtRequest{req: req, body: body, cleanup: func() {}}, nil
}

func fieldName(p fileset.Part) string {
	if p.Name != "" {
		return p.Name
	}
	return "file"
}

func partBytes(p fileset.Part) ([]byte, error) {
	if p.Data != nil {
		return p.Data, nil
	}
	if p.Path != "" {
		return readFileBytes(p.Path)
	}
	return nil, nil
}

// scalarize renders a form field: strings pass through untouched, every
// other value is JSON-encoded (matching "scalarized JSON-encoded form
// fields" — a non-string body field sent over multipart must still arrive
// as one string token).
func scalarize(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
