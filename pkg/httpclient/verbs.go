package httpclient

import (
	"context"
	"net/http"

	"github.com/Amr-9/corehttp/internal/envelope"
)

func (r *RequestCore) call(method, endpoint string) (*envelope.Envelope, error) {
	return r.Execute(context.Background(), callParams{endpoint: endpoint, method: method})
}

func (r *RequestCore) Get(endpoint string) (*envelope.Envelope, error) {
	return r.call(http.MethodGet, endpoint)
}

func (r *RequestCore) Post(endpoint string) (*envelope.Envelope, error) {
	return r.call(http.MethodPost, endpoint)
}

func (r *RequestCore) Put(endpoint string) (*envelope.Envelope, error) {
	return r.call(http.MethodPut, endpoint)
}

func (r *RequestCore) Patch(endpoint string) (*envelope.Envelope, error) {
	return r.call(http.MethodPatch, endpoint)
}

func (r *RequestCore) Delete(endpoint string) (*envelope.Envelope, error) {
	return r.call(http.MethodDelete, endpoint)
}

func (r *RequestCore) Options(endpoint string) (*envelope.Envelope, error) {
	return r.call(http.MethodOptions, endpoint)
}

func (r *RequestCore) Head(endpoint string) (*envelope.Envelope, error) {
	return r.call(http.MethodHead, endpoint)
}

// Graph runs one GraphQL call: query/vars override the core's base GraphQL
// fields for this call only, restored afterward regardless of outcome —
// SPEC_FULL.md §12 item 4 (the Python original leaves a failed call's
// one-off query stuck on the instance).
func (r *RequestCore) Graph(query string, vars map[string]any) (*envelope.Envelope, error) {
	r.mu.Lock()
	savedQuery, savedVars := r.cfg.GraphQuery, r.cfg.GraphVars
	r.cfg.GraphQuery = query
	r.mu.Unlock()

	env, err := r.Execute(context.Background(), callParams{method: http.MethodPost, data: vars})

	r.mu.Lock()
	r.cfg.GraphQuery, r.cfg.GraphVars = savedQuery, savedVars
	r.mu.Unlock()

	return env, err
}

// Upload attaches paths as multipart files for one call, merging data as
// additional scalarized form fields.
func (r *RequestCore) Upload(paths []any, endpoint string, data map[string]any) (*envelope.Envelope, error) {
	r.mu.Lock()
	savedFiles := r.cfg.Files
	r.cfg.Files = append(append([]any(nil), r.cfg.Files...), paths...)
	r.mu.Unlock()

	env, err := r.Execute(context.Background(), callParams{endpoint: endpoint, method: http.MethodPost, data: data})

	r.mu.Lock()
	r.cfg.Files = savedFiles
	r.mu.Unlock()

	return env, err
}
