package httpclient

import (
	"context"
	"net/http"

	"github.com/Amr-9/corehttp/internal/envelope"
	"github.com/Amr-9/corehttp/internal/fanout"
)

// CallSpec is one fan-out unit: a method/endpoint pair dispatched through a
// fresh clone of the base core, matching spec.md §4.12's "each worker gets
// a deep clone" rule so concurrent calls never share rate-limiter/breaker
// state.
type CallSpec struct {
	Method   string
	Endpoint string
}

func (r *RequestCore) toCall(spec CallSpec) fanout.Call[*envelope.Envelope] {
	return func(ctx context.Context) (*envelope.Envelope, error) {
		clone, err := r.Clone()
		if err != nil {
			return nil, err
		}
		defer clone.Close()
		return clone.Execute(ctx, callParams{endpoint: spec.Endpoint, method: spec.Method})
	}
}

// Multi runs list sequentially, preserving order (spec.md §6).
func (r *RequestCore) Multi(ctx context.Context, list []CallSpec) ([]*envelope.Envelope, []error) {
	calls := make([]fanout.Call[*envelope.Envelope], len(list))
	for i, spec := range list {
		calls[i] = r.toCall(spec)
	}
	return fanout.Multi(ctx, calls)
}

// Gather runs list with up to maxWorkers concurrent in flight, preserving
// result order.
func (r *RequestCore) Gather(ctx context.Context, list []CallSpec, maxWorkers int) ([]*envelope.Envelope, []error) {
	calls := make([]fanout.Call[*envelope.Envelope], len(list))
	for i, spec := range list {
		calls[i] = r.toCall(spec)
	}
	return fanout.Gather(ctx, calls, maxWorkers)
}

// Dos fires count identical (method, endpoint) calls through Gather.
func (r *RequestCore) Dos(ctx context.Context, count, maxWorkers int, method, endpoint string) ([]*envelope.Envelope, []error) {
	if method == "" {
		method = http.MethodGet
	}
	spec := CallSpec{Method: method, Endpoint: endpoint}
	return fanout.Dos(ctx, count, maxWorkers, func(i int) fanout.Call[*envelope.Envelope] {
		return r.toCall(spec)
	})
}
