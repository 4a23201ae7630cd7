package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMonitorAddAccumulatesSuccessAndFailureCounts(t *testing.T) {
	m := NewMonitor()
	m.Add(Sample{Status: 200, Latency: 10 * time.Millisecond, Bytes: 128, Success: true})
	m.Add(Sample{Status: 500, Latency: 20 * time.Millisecond, Bytes: 64, Success: false})
	m.Add(Sample{Status: 0, Err: errors.New("dial tcp: refused"), Success: false})

	report := m.Snapshot()
	assert.EqualValues(t, 3, report.TotalRequests)
	assert.EqualValues(t, 1, report.SuccessCount)
	assert.EqualValues(t, 2, report.FailureCount)
	assert.EqualValues(t, 192, report.TotalBytes)
	assert.Equal(t, int64(1), report.StatusCodes["200"])
	assert.Equal(t, int64(1), report.StatusCodes["500"])
	assert.Equal(t, int64(1), report.StatusCodes["NetErr"])
	assert.Equal(t, int64(1), report.Errors["dial tcp: refused"])
}

func TestMonitorSkipsLatencyForTransportErrors(t *testing.T) {
	m := NewMonitor()
	m.Add(Sample{Status: 0, Err: errors.New("timeout"), Success: false})
	m.Add(Sample{Status: 200, Latency: 2 * time.Millisecond, Success: true})

	report := m.Snapshot()
	assert.Equal(t, 2*time.Millisecond, report.P50)
}
