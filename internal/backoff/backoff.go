// Package backoff computes per-attempt retry delays per spec.md §4.3,
// grounded on original_source/core/utils/api/base_request.py's
// resolve_delay and on the teacher's internal/attacker.executeStepWithRetry
// exponential-backoff idiom.
package backoff

import (
	"math/rand"
	"net/http"
	"net/textproto"
	"strconv"
	"sync"
	"time"
)

// Mode selects the delay formula.
type Mode string

const (
	Exponential  Mode = "exponential"
	Jitter       Mode = "jitter"
	Decorrelated Mode = "decorrelated"
)

const (
	minDelay = 10 * time.Millisecond
)

// Policy computes delays for one call's retry loop. The decorrelated mode's
// seed (lastDelay) is confined to one Policy instance — per spec.md §9's
// Open Question, it must not carry across distinct calls, so callers obtain
// a fresh Policy (or call Reset) per call.
type Policy struct {
	Base, Max time.Duration
	Mode      Mode

	mu        sync.Mutex
	lastDelay time.Duration
}

// New builds a Policy. Mode defaults to Exponential for an empty/unknown value.
func New(base, max time.Duration, mode Mode) *Policy {
	return &Policy{Base: base, Max: max, Mode: mode}
}

// Reset clears the decorrelated seed, for reuse across a new call.
func (p *Policy) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastDelay = 0
}

// Delay returns the wait before the next attempt. If resp carries a
// Retry-After header (seconds or an HTTP-date), that value wins outright.
func (p *Policy) Delay(attempt int, resp *http.Response) time.Duration {
	if resp != nil {
		if d, ok := retryAfter(resp.Header); ok {
			return d
		}
	}
	return p.clamp(p.compute(attempt))
}

func (p *Policy) compute(attempt int) time.Duration {
	base := p.Base
	if base <= 0 {
		base = minDelay
	}
	pow := time.Duration(1) << uint(attempt)
	if attempt > 30 {
		pow = time.Duration(1) << 30
	}

	switch p.Mode {
	case Jitter:
		return time.Duration(rand.Int63n(int64(base*pow) + 1))

	case Decorrelated:
		p.mu.Lock()
		defer p.mu.Unlock()
		prev := p.lastDelay
		if prev <= 0 {
			prev = base
		}
		lo := int64(base)
		hi := int64(prev * 3)
		if hi <= lo {
			hi = lo + 1
		}
		d := time.Duration(lo + rand.Int63n(hi-lo))
		p.lastDelay = d
		return d

	default: // Exponential
		return base * pow
	}
}

func (p *Policy) clamp(d time.Duration) time.Duration {
	if d < minDelay {
		d = minDelay
	}
	if p.Max > 0 && d > p.Max {
		d = p.Max
	}
	return d
}

// retryAfter parses the Retry-After header, which is either a number of
// seconds or an HTTP-date (RFC 7231 §7.1.3).
func retryAfter(h http.Header) (time.Duration, bool) {
	v := h.Get(textproto.CanonicalMIMEHeaderKey("Retry-After"))
	if v == "" {
		return 0, false
	}

	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), true
	}

	if t, err := http.ParseTime(v); err == nil {
		d := time.Until(t)
		if d < minDelay {
			d = minDelay
		}
		return d, true
	}

	return 0, false
}
