package runtimeconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 2, cfg.Retry.MaxRetries)
	assert.Contains(t, cfg.Retry.RetryCodes, 429)
	assert.Equal(t, "exponential", cfg.Retry.BackoffMode)
	assert.Equal(t, 5, cfg.CircuitBreaker.Threshold)
	assert.Equal(t, 30*time.Second, cfg.CircuitBreaker.Cooldown)
	assert.Empty(t, cfg.RateLimits)
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "runtime.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadOverridesOnlySpecifiedFields(t *testing.T) {
	path := writeTempConfig(t, `
retry:
  max_retries: 5
  backoff_mode: decorrelated
circuit_breaker:
  cooldown: 1m
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Retry.MaxRetries)
	assert.Equal(t, "decorrelated", cfg.Retry.BackoffMode)
	assert.Equal(t, 200*time.Millisecond, cfg.Retry.BaseDelay) // unchanged default
	assert.Equal(t, time.Minute, cfg.CircuitBreaker.Cooldown)
	assert.Equal(t, 5, cfg.CircuitBreaker.Threshold) // unchanged default
}

func TestLoadRateLimits(t *testing.T) {
	path := writeTempConfig(t, `
rate_limits:
  - endpoint: /users
    method: GET
    rate: 10
    window: 1s
  - endpoint: /orders
    rate: 2
    window: 500ms
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.RateLimits, 2)
	assert.Equal(t, "/users", cfg.RateLimits[0].Endpoint)
	assert.Equal(t, 10, cfg.RateLimits[0].Rate)
	assert.Equal(t, time.Second, cfg.RateLimits[0].Window)
	assert.Equal(t, 500*time.Millisecond, cfg.RateLimits[1].Window)
}

func TestLoadTransportAndHooks(t *testing.T) {
	path := writeTempConfig(t, `
transport:
  timeout: 5s
  insecure: true
  force_http2: true
  max_idle_conns_per_host: 50
hooks:
  queue_capacity: 1024
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Transport.Timeout)
	assert.True(t, cfg.Transport.Insecure)
	assert.True(t, cfg.Transport.ForceHTTP2)
	assert.Equal(t, 50, cfg.Transport.MaxIdleConnsPerHost)
	assert.Equal(t, 1024, cfg.HookQueueCapacity)
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidDurationReturnsError(t *testing.T) {
	path := writeTempConfig(t, `
retry:
  base_delay: not-a-duration
`)
	_, err := Load(path)
	assert.Error(t, err)
}
