package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/Amr-9/corehttp/internal/download"
	"github.com/Amr-9/corehttp/internal/hooks"
)

// progressEvent is the payload dispatched on hooks.Progress.
type progressEvent struct {
	Downloaded int64
	Total      int64
	Percent    float64
}

// Download streams endpoint's response body to path, resuming from the
// local file's current size when resume is true (spec.md §4.9). A 416 on a
// resumed request is treated as already-complete, not an error; a resumed
// request answered with anything but 206+Content-Range is restarted from 0.
func (r *RequestCore) Download(ctx context.Context, endpoint, path string, resume bool) (int64, error) {
	r.mu.Lock()
	cfg := r.cfg
	r.mu.Unlock()

	targetURL, err := resolveURL(cfg, endpoint)
	if err != nil {
		return 0, err
	}

	start, rangeHeader := download.ResolveStart(path, resume)

	resp, state, err := r.downloadAttempt(ctx, targetURL, rangeHeader)
	if err != nil {
		return 0, err
	}

	if state.AlreadyComplete() {
		resp.Body.Close()
		return start, nil
	}

	if state.ShouldRestartWithoutRange() {
		resp.Body.Close()
		start = 0
		resp, _, err = r.downloadAttempt(ctx, targetURL, "")
		if err != nil {
			return 0, err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return 0, newHTTPStatusError(resp.StatusCode, body)
	}

	total, known := download.TotalSize(resp.Header.Get("Content-Range"), resp.Header.Get("Content-Length"), start)
	resolvedPath := download.ResolveFilename(path, resp.Header.Get("Content-Type"), resp.Header.Get("Content-Disposition"))

	writer, err := download.Open(resolvedPath, start, total, known, func(downloaded, totalBytes int64, percent float64) {
		r.bus.Dispatch(hooks.Progress, progressEvent{Downloaded: downloaded, Total: totalBytes, Percent: percent})
	})
	if err != nil {
		return 0, err
	}
	defer writer.Close()

	chunkSize := download.ChunkSize(total, known)
	buf := make([]byte, chunkSize)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if werr := writer.Write(buf[:n]); werr != nil {
				return writer.Downloaded(), werr
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return writer.Downloaded(), rerr
		}
	}

	return writer.Downloaded(), nil
}

func (r *RequestCore) downloadAttempt(ctx context.Context, targetURL, rangeHeader string) (*http.Response, download.RangeState, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, download.RangeState{}, err
	}
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, download.RangeState{}, err
	}

	state := download.RangeState{
		Status:       resp.StatusCode,
		ContentRange: resp.Header.Get("Content-Range"),
	}
	if rangeHeader != "" {
		state.RequestedStart = 1 // any positive value marks "resume was requested"
	}
	return resp, state, nil
}

func newHTTPStatusError(status int, body []byte) error {
	return fmt.Errorf("httpclient: download failed with status %d: %s", status, string(body))
}
