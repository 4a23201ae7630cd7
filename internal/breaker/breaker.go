// Package breaker implements the three-state circuit breaker of spec.md §4.2.
// It keeps the teacher's (internal/circuitbreaker) shape — one struct whose
// state and counters all sit behind a single mutex — but replaces the
// teacher's error-rate-threshold design with the CLOSED/OPEN/HALF_OPEN state
// machine the spec requires.
package breaker

import (
	"sync"
	"time"
)

// State is one of the three breaker states.
type State int32

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// Breaker guards outbound calls. A nil *Breaker behaves as always-closed,
// matching the teacher's nil-receiver-safe Breaker.
type Breaker struct {
	mu                sync.Mutex
	state             State
	failures          int
	openedAt          time.Time
	threshold         int
	cooldown          time.Duration
	halfOpenProbeUsed bool
	now               func() time.Time
}

// New creates a breaker with the given failure threshold and open-state
// cooldown. A nil or non-positive threshold disables tripping.
func New(threshold int, cooldown time.Duration) *Breaker {
	return &Breaker{threshold: threshold, cooldown: cooldown, now: time.Now}
}

// Allowed reports whether a call may proceed, advancing OPEN→HALF_OPEN once
// the cooldown elapses and admitting exactly one concurrent HALF_OPEN probe.
func (b *Breaker) Allowed() bool {
	if b == nil {
		return true
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		return true

	case Open:
		if b.now().Before(b.openedAt.Add(b.cooldown)) {
			return false
		}
		b.state = HalfOpen
		b.halfOpenProbeUsed = false
		return true

	default: // HalfOpen
		if b.halfOpenProbeUsed {
			return false
		}
		b.halfOpenProbeUsed = true
		return true
	}
}

// Update records the outcome of a call that Allowed() admitted.
func (b *Breaker) Update(success bool) {
	if b == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if success {
		b.state = Closed
		b.failures = 0
		b.halfOpenProbeUsed = false
		return
	}

	if b.state == HalfOpen {
		b.state = Open
		b.openedAt = b.now()
		b.halfOpenProbeUsed = false
		return
	}

	b.failures++
	if b.threshold > 0 && b.failures >= b.threshold {
		b.state = Open
		b.openedAt = b.now()
		b.failures = 0
	}
}

// State returns the current state.
func (b *Breaker) State() State {
	if b == nil {
		return Closed
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset returns the breaker to CLOSED with zeroed counters.
func (b *Breaker) Reset() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = Closed
	b.failures = 0
	b.halfOpenProbeUsed = false
	b.openedAt = time.Time{}
}

// Clone produces an independent breaker with the same configuration and a
// reset runtime state, matching RequestConfig.clone's "no shared live state"
// invariant (spec.md §3).
func (b *Breaker) Clone() *Breaker {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return New(b.threshold, b.cooldown)
}
