package httpclient

import (
	"context"
	"net/http"

	"github.com/Amr-9/corehttp/internal/envelope"
	"github.com/Amr-9/corehttp/internal/paginate"
)

// Paginator issues the first GET to endpoint and returns a Walker seeded
// with it, fetching subsequent pages through a clone of this core so the
// walk's requests never perturb the base core's rate-limiter/breaker state.
func (r *RequestCore) Paginator(ctx context.Context, endpoint string, baseParams map[string]string, limit int) (*paginate.Walker, error) {
	clone, err := r.Clone()
	if err != nil {
		return nil, err
	}

	first, err := clone.Execute(ctx, callParams{endpoint: endpoint, method: http.MethodGet, params: baseParams})
	if err != nil && first == nil {
		clone.Close()
		return nil, err
	}

	fetch := func(params map[string]string) (*envelope.Envelope, error) {
		return clone.Execute(ctx, callParams{endpoint: endpoint, method: http.MethodGet, params: params})
	}

	return paginate.NewWalker(fetch, baseParams, limit, first), nil
}
