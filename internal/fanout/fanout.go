// Package fanout implements the concurrent dispatch primitives of spec.md
// §4.12: Multi (sequential), Gather (bounded-concurrency), and Dos
// (synthetic identical-request load), optionally paced by a
// golang.org/x/time/rate limiter ramped the way the teacher's
// internal/attacker.Engine.runStages ramps its own load generator. Grounded
// on original_source/core/utils/api/request.py's multi/gather/dos and on
// internal/attacker/attacker.go's runStages/rate.Limiter usage.
package fanout

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Call is one unit of fan-out work: execute a request and return its
// result. T is typically a *envelope.Envelope or a higher-level response
// type from pkg/httpclient; fanout stays generic so it never needs to
// import that package.
type Call[T any] func(ctx context.Context) (T, error)

// Multi runs each call in order, waiting for one to finish before starting
// the next — the Go analogue of multi()'s plain for-loop. Results preserve
// call order; an error from one call does not stop the rest, matching the
// original's "if not item: continue" tolerance of partial failure.
func Multi[T any](ctx context.Context, calls []Call[T]) ([]T, []error) {
	results := make([]T, len(calls))
	errs := make([]error, len(calls))

	for i, call := range calls {
		if ctx.Err() != nil {
			errs[i] = ctx.Err()
			continue
		}
		results[i], errs[i] = call(ctx)
	}

	return results, errs
}

// Gather runs calls with up to maxWorkers concurrent in flight, returning
// results in the same order as calls — the Go analogue of gather()'s
// ThreadPoolExecutor.map, which also preserves submission order.
func Gather[T any](ctx context.Context, calls []Call[T], maxWorkers int) ([]T, []error) {
	if maxWorkers <= 0 {
		maxWorkers = 32
	}

	results := make([]T, len(calls))
	errs := make([]error, len(calls))

	sem := make(chan struct{}, maxWorkers)
	var wg sync.WaitGroup

	for i, call := range calls {
		i, call := i, call
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			if ctx.Err() != nil {
				errs[i] = ctx.Err()
				return
			}
			results[i], errs[i] = call(ctx)
		}()
	}

	wg.Wait()
	return results, errs
}

// Dos runs count copies of the same call through Gather — the Go analogue
// of dos()'s "gather([(method, endpoint) for _ in range(count)])". make is
// invoked once per slot so each goroutine gets its own Call closure (e.g.
// over a cloned RequestCore), matching the spec's "identical requests, not
// a shared mutable one" requirement.
func Dos[T any](ctx context.Context, count int, maxWorkers int, make_ func(i int) Call[T]) ([]T, []error) {
	calls := make([]Call[T], count)
	for i := range calls {
		calls[i] = make_(i)
	}
	return Gather(ctx, calls, maxWorkers)
}

// Pacer wraps a golang.org/x/time/rate.Limiter and an optional staged
// ramp, the fanout-local equivalent of the teacher's runStages: each Stage
// linearly interpolates the limit from its starting value to Target over
// Duration, advancing once Duration elapses.
type Pacer struct {
	limiter *rate.Limiter
}

// Stage is one ramp segment, named and shaped like
// internal/attacker's models.Stage (Target requests/sec, Duration to
// reach it).
type Stage struct {
	Target   float64
	Duration time.Duration
}

// RunStages linearly ramps p's limit through each stage in turn, the same
// 100ms-tick linear interpolation as the teacher's Engine.runStages, until
// ctx is cancelled or every stage completes. Intended to run in its own
// goroutine alongside the workers it paces.
func RunStages(ctx context.Context, p *Pacer, stages []Stage) {
	const tick = 100 * time.Millisecond

	for _, stage := range stages {
		startLimit := float64(p.limiter.Limit())
		target := stage.Target
		if target == 0 {
			target = 1
		}

		ticker := time.NewTicker(tick)
		start := time.Now()

		done := false
		for !done {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return
			case t := <-ticker.C:
				elapsed := t.Sub(start)
				if elapsed >= stage.Duration {
					p.SetLimit(target)
					done = true
					break
				}
				progress := float64(elapsed) / float64(stage.Duration)
				p.SetLimit(startLimit + (target-startLimit)*progress)
			}
		}
		ticker.Stop()
	}
}

// NewPacer builds a Pacer at a fixed rate (no ramp).
func NewPacer(ratePerSec float64) *Pacer {
	return &Pacer{limiter: rate.NewLimiter(rate.Limit(ratePerSec), 1)}
}

// Wait blocks until the pacer admits the next call, or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.limiter == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}

// SetLimit updates the pacer's current rate; RunStages uses this to ramp.
func (p *Pacer) SetLimit(ratePerSec float64) {
	p.limiter.SetLimit(rate.Limit(ratePerSec))
}

// PacedGather is Gather with every call additionally throttled by pacer
// before it runs — used by Dos-style load generation where Gather's
// worker cap alone doesn't bound requests/sec.
func PacedGather[T any](ctx context.Context, calls []Call[T], maxWorkers int, pacer *Pacer) ([]T, []error) {
	if pacer == nil {
		return Gather(ctx, calls, maxWorkers)
	}
	wrapped := make([]Call[T], len(calls))
	for i, call := range calls {
		call := call
		wrapped[i] = func(ctx context.Context) (T, error) {
			var zero T
			if err := pacer.Wait(ctx); err != nil {
				return zero, err
			}
			return call(ctx)
		}
	}
	return Gather(ctx, wrapped, maxWorkers)
}
