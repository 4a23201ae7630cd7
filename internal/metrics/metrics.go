// Package metrics collects live latency/throughput/status statistics for a
// running fan-out, the corehttp analogue of the teacher's internal/stats
// load-test Monitor: atomic counters plus an HdrHistogram.Histogram feed
// cmd/httpcli's live dashboard and final summary instead of a load test's
// per-second report. Grounded on internal/stats/stats.go's Monitor/Add/
// Snapshot.
package metrics

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Sample is one completed call's outcome, fed to Monitor.Add. status is 0
// for calls that never produced a response (transport failure).
type Sample struct {
	Status  int
	Latency time.Duration
	Bytes   int64
	Success bool
	Err     error
}

// Monitor aggregates Samples concurrently. One Monitor per fan-out run.
type Monitor struct {
	requests int64
	success  int64
	fail     int64

	totalBytes int64

	mu        sync.Mutex
	histogram *hdrhistogram.Histogram

	statusCodes sync.Map // map[int]int64
	errors      sync.Map // map[string]int64

	start time.Time
}

// NewMonitor builds a Monitor timestamped at construction, min 1µs / max
// 30s latency range at 3 significant figures — identical histogram
// parameters to the teacher's stats.NewMonitor.
func NewMonitor() *Monitor {
	return &Monitor{
		start:     time.Now(),
		histogram: hdrhistogram.New(1, 30_000_000, 3),
	}
}

// Add records one Sample. Latency is only folded into the histogram when
// the call produced a response (Err == nil); a transport failure's
// latency would otherwise skew percentiles low, same rationale as the
// teacher's Monitor.Add.
func (m *Monitor) Add(s Sample) {
	atomic.AddInt64(&m.requests, 1)
	atomic.AddInt64(&m.totalBytes, s.Bytes)

	if s.Success {
		atomic.AddInt64(&m.success, 1)
	} else {
		atomic.AddInt64(&m.fail, 1)
	}

	status := s.Status
	if status == 0 && s.Err != nil {
		status = -1 // synthetic "no response" bucket, rendered as NetErr
	}
	count, _ := m.statusCodes.LoadOrStore(status, new(int64))
	atomic.AddInt64(count.(*int64), 1)

	if s.Err != nil {
		key := s.Err.Error()
		count, _ := m.errors.LoadOrStore(key, new(int64))
		atomic.AddInt64(count.(*int64), 1)
		return
	}

	m.mu.Lock()
	_ = m.histogram.RecordValue(s.Latency.Microseconds())
	m.mu.Unlock()
}

// Report is a point-in-time rollup of everything Monitor has seen.
type Report struct {
	TotalRequests int64
	SuccessCount  int64
	FailureCount  int64
	SuccessRate   float64
	TotalBytes    int64
	Throughput    float64 // bytes/sec
	RPS           float64
	Elapsed       time.Duration

	P50, P75, P90, P95, P99 time.Duration
	Min, Max                time.Duration

	StatusCodes map[string]int64
	Errors      map[string]int64
}

// Snapshot computes a Report from the counters as they stand right now.
// Safe to call repeatedly while Add runs concurrently on other goroutines.
func (m *Monitor) Snapshot() Report {
	reqs := atomic.LoadInt64(&m.requests)
	succ := atomic.LoadInt64(&m.success)
	fail := atomic.LoadInt64(&m.fail)
	totalBytes := atomic.LoadInt64(&m.totalBytes)
	elapsed := time.Since(m.start)

	var rps, throughput, successRate float64
	if secs := elapsed.Seconds(); secs > 0 {
		rps = float64(reqs) / secs
		throughput = float64(totalBytes) / secs
	}
	if reqs > 0 {
		successRate = float64(succ) / float64(reqs) * 100
	}

	m.mu.Lock()
	h := m.histogram
	p50 := microsDuration(h.ValueAtQuantile(50))
	p75 := microsDuration(h.ValueAtQuantile(75))
	p90 := microsDuration(h.ValueAtQuantile(90))
	p95 := microsDuration(h.ValueAtQuantile(95))
	p99 := microsDuration(h.ValueAtQuantile(99))
	min := microsDuration(h.Min())
	max := microsDuration(h.Max())
	m.mu.Unlock()

	statusCodes := make(map[string]int64)
	m.statusCodes.Range(func(key, value any) bool {
		code := key.(int)
		label := fmt.Sprintf("%d", code)
		if code == -1 {
			label = "NetErr"
		}
		statusCodes[label] = atomic.LoadInt64(value.(*int64))
		return true
	})

	errs := make(map[string]int64)
	m.errors.Range(func(key, value any) bool {
		errs[key.(string)] = atomic.LoadInt64(value.(*int64))
		return true
	})

	return Report{
		TotalRequests: reqs,
		SuccessCount:  succ,
		FailureCount:  fail,
		SuccessRate:   successRate,
		TotalBytes:    totalBytes,
		Throughput:    throughput,
		RPS:           rps,
		Elapsed:       elapsed,
		P50:           p50,
		P75:           p75,
		P90:           p90,
		P95:           p95,
		P99:           p99,
		Min:           min,
		Max:           max,
		StatusCodes:   statusCodes,
		Errors:        errs,
	}
}

func microsDuration(v int64) time.Duration {
	return time.Duration(v) * time.Microsecond
}
