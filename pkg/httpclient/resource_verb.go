package httpclient

import (
	"context"
	"net/http"

	"github.com/Amr-9/corehttp/internal/resource"
)

// Call implements resource.Caller: it issues one request for method/path
// with params carried as query params (GET/DELETE/HEAD/OPTIONS) or body
// data (POST/PUT/PATCH), returning the decoded, model-shaped payload.
func (r *RequestCore) Call(method, path string, params map[string]any) (any, error) {
	ctx := context.Background()
	call := callParams{endpoint: path, method: method}

	switch method {
	case http.MethodGet, http.MethodDelete, http.MethodHead, http.MethodOptions:
		call.params = stringifyParams(params)
	default:
		call.data = params
	}

	env, err := r.Execute(ctx, call)
	if err != nil {
		return nil, err
	}
	return resource.ModelsFrom(env.Data()), nil
}

// Resource starts a path-segment chain rooted at this core, per spec.md
// §4.14.
func (r *RequestCore) Resource(parts ...string) *resource.Resource {
	return resource.New(r, parts...)
}

func stringifyParams(params map[string]any) map[string]string {
	if params == nil {
		return nil
	}
	out := make(map[string]string, len(params))
	for k, v := range params {
		if s, ok := v.(string); ok {
			out[k] = s
		} else {
			out[k] = toQueryString(v)
		}
	}
	return out
}
