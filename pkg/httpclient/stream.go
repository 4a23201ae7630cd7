package httpclient

import (
	"context"
	"io"
	"sync/atomic"

	"github.com/Amr-9/corehttp/internal/hooks"
	"github.com/Amr-9/corehttp/internal/sse"
)

// Stream issues a GET to endpoint and feeds the response body through an
// SSE parser (when asSSE is true) or raw byte chunks, dispatching each
// event/chunk on hooks.Stream as it arrives. chunkSize controls the read
// buffer. StopStream halts emission at the next chunk boundary.
func (r *RequestCore) Stream(ctx context.Context, endpoint string, asSSE bool, chunkSize int) error {
	r.mu.Lock()
	cfg := r.cfg
	r.mu.Unlock()

	targetURL, err := resolveURL(cfg, endpoint)
	if err != nil {
		return err
	}

	built, err := buildQueryRequest(ctx, "GET", targetURL, nil)
	if err != nil {
		return err
	}
	applyHeaders(built.req, cfg)
	if err := r.applyAuth(built.req, nil, cfg); err != nil {
		return err
	}

	resp, err := r.client.Do(built.req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if chunkSize <= 0 {
		chunkSize = 4096
	}

	parser := sse.New()
	buf := make([]byte, chunkSize)

	for {
		if atomic.LoadInt32(&r.stopStream) != 0 {
			parser.Reset()
			atomic.StoreInt32(&r.stopStream, 0)
			return nil
		}

		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			if asSSE {
				for _, ev := range parser.Feed(chunk) {
					r.bus.Dispatch(hooks.Stream, ev)
				}
			} else {
				r.bus.Dispatch(hooks.Stream, append([]byte(nil), chunk...))
			}
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return rerr
		}
	}
}

// StopStream requests that the current Stream loop exit at its next chunk
// boundary, matching stop_stream()'s flag-consumed-at-next-chunk contract.
func (r *RequestCore) StopStream() {
	atomic.StoreInt32(&r.stopStream, 1)
}
