// Package download implements the resumable/ranged file writer of spec.md
// §4.9, grounded on original_source/core/utils/api/request.py's download
// and base_response.py's resolve_path_ext/save.
package download

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ProgressFunc is invoked with (downloaded, total, percent) whenever the
// downloaded delta since the last call exceeds 1% of total — matching
// save()'s on_progress throttling. total is 0 when the server never gave a
// size, in which case percent is always 0.
type ProgressFunc func(downloaded, total int64, percent float64)

// RangeState captures everything a resumable GET needs to decide whether to
// restart without Range (spec.md §4.9's "206-without-Content-Range" and
// "416 means already complete" rules).
type RangeState struct {
	RequestedStart int64 // Range: bytes=N- sent on the request, 0 if none
	Status         int
	ContentRange   string // response Content-Range header, "" if absent
}

// ShouldRestartWithoutRange reports whether the attempt must be redone with
// no Range header and start reset to 0: the server was asked to resume but
// answered something other than a 206 carrying Content-Range.
func (r RangeState) ShouldRestartWithoutRange() bool {
	return r.RequestedStart > 0 && (r.Status != 206 || r.ContentRange == "")
}

// AlreadyComplete reports whether a 416 means the local file is already
// the full content — the request must not be retried as a failure.
func (r RangeState) AlreadyComplete() bool {
	return r.Status == 416
}

// ResolveStart returns the local byte offset to resume from, and the
// Range header value to send (empty if no resume should be attempted).
// It matches download()'s "resume && path exists && size>0" gate.
func ResolveStart(path string, resume bool) (start int64, rangeHeader string) {
	if !resume || path == "" {
		return 0, ""
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, ""
	}
	if info.Size() <= 0 {
		return 0, ""
	}
	return info.Size(), fmt.Sprintf("bytes=%d-", info.Size())
}

// TotalSize derives the expected final size from the response headers,
// given the local start offset already written.
func TotalSize(contentRange, contentLength string, start int64) (size int64, known bool) {
	if contentRange != "" {
		if idx := strings.LastIndexByte(contentRange, '/'); idx != -1 {
			if n, err := strconv.ParseInt(contentRange[idx+1:], 10, 64); err == nil {
				return n, true
			}
		}
		return 0, false
	}
	if contentLength != "" {
		if n, err := strconv.ParseInt(contentLength, 10, 64); err == nil {
			return n + start, true
		}
	}
	return 0, false
}

// ChunkSize picks an I/O chunk size that scales with the expected total,
// per save()'s adaptive thresholds.
func ChunkSize(totalSize int64, known bool) int {
	switch {
	case !known:
		return 16 * 1024
	case totalSize > 5*1024*1024*1024:
		return 1 * 1024 * 1024
	case totalSize > 500*1024*1024:
		return 512 * 1024
	case totalSize > 10*1024*1024:
		return 256 * 1024
	default:
		return 64 * 1024
	}
}

// Writer appends (start>0) or truncates (start==0) the destination file and
// reports throttled progress as bytes arrive.
type Writer struct {
	file         *os.File
	downloaded   int64
	lastReported int64
	total        int64
	totalKnown   bool
	onProgress   ProgressFunc
}

// Open creates or appends to path depending on start, matching save()'s
// "ab" if start > 0 else "wb" mode selection.
func Open(path string, start int64, total int64, totalKnown bool, onProgress ProgressFunc) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	flags := os.O_WRONLY | os.O_CREATE
	if start > 0 {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, err
	}

	return &Writer{file: f, downloaded: start, total: total, totalKnown: totalKnown, onProgress: onProgress}, nil
}

// Write appends chunk to the file and fires the progress callback if the
// downloaded delta since the last report exceeds 1% of the total.
func (w *Writer) Write(chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}
	if _, err := w.file.Write(chunk); err != nil {
		return err
	}
	w.downloaded += int64(len(chunk))

	if w.onProgress == nil {
		return nil
	}

	threshold := int64(float64(w.total) * 0.01)
	if w.totalKnown && w.total > 0 && (w.downloaded-w.lastReported) <= threshold {
		return nil
	}
	if !w.totalKnown {
		// no size to compare against: report every write, matching the
		// Python "size and size > 0" guard defaulting percent to 0
		w.onProgress(w.downloaded, 0, 0)
		w.lastReported = w.downloaded
		return nil
	}

	percent := float64(0)
	if w.total > 0 {
		percent = (float64(w.downloaded) / float64(w.total)) * 100
	}
	w.onProgress(w.downloaded, w.total, percent)
	w.lastReported = w.downloaded
	return nil
}

// Close closes the underlying file.
func (w *Writer) Close() error {
	return w.file.Close()
}

// Downloaded returns the number of bytes written so far (including any
// resumed prefix).
func (w *Writer) Downloaded() int64 {
	return w.downloaded
}

// ResolveFilename applies resolve_path_ext's precedence: an explicit path
// wins outright (an extension is appended if the path has none); otherwise
// a Content-Disposition filename is used under downloads/; otherwise a
// content-type-derived extension is appended to a timestamped name.
func ResolveFilename(path, contentType, contentDisposition string) string {
	ext := extensionFor(contentType)

	if path == "" {
		if fn := filenameFromDisposition(contentDisposition); fn != "" {
			return filepath.Join("downloads", fn)
		}
		return filepath.Join("downloads", fmt.Sprintf("%d%s", time.Now().Unix(), ext))
	}

	if filepath.Ext(path) == "" {
		return path + ext
	}
	return path
}

func filenameFromDisposition(cd string) string {
	if cd == "" {
		return ""
	}
	if strings.Contains(cd, "filename*") {
		part := afterLast(cd, "filename*=")
		part = strings.SplitN(part, ";", 2)[0]
		part = strings.TrimSpace(part)
		if idx := strings.LastIndex(part, "''"); idx != -1 {
			part = part[idx+2:]
		}
		return part
	}
	if strings.Contains(cd, "filename=") {
		part := afterLast(cd, "filename=")
		part = strings.SplitN(part, ";", 2)[0]
		return strings.Trim(strings.TrimSpace(part), `"`)
	}
	return ""
}

func afterLast(s, sep string) string {
	idx := strings.LastIndex(s, sep)
	if idx == -1 {
		return s
	}
	return s[idx+len(sep):]
}

func extensionFor(contentType string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "json"):
		return ".json"
	case strings.Contains(ct, "html"):
		return ".html"
	case strings.Contains(ct, "xml"):
		return ".xml"
	case strings.Contains(ct, "pdf"):
		return ".pdf"
	case strings.Contains(ct, "text"):
		return ".txt"
	}
	for _, img := range []string{"png", "jpeg", "jpg", "gif", "webp", "bmp"} {
		if strings.Contains(ct, img) {
			return "." + lastSegment(ct)
		}
	}
	for _, vid := range []string{"mp4", "webm", "mov", "avi", "mkv", "flv"} {
		if strings.Contains(ct, vid) {
			return "." + lastSegment(ct)
		}
	}
	for _, aud := range []string{"mp3", "wav", "ogg", "aac", "m4a", "flac"} {
		if strings.Contains(ct, aud) {
			return "." + lastSegment(ct)
		}
	}
	for _, arc := range []string{"zip", "rar", "tar", "gz", "7z"} {
		if strings.Contains(ct, arc) {
			return "." + lastSegment(ct)
		}
	}
	return ".bin"
}

func lastSegment(ct string) string {
	if idx := strings.LastIndexByte(ct, '/'); idx != -1 {
		return ct[idx+1:]
	}
	return ct
}
