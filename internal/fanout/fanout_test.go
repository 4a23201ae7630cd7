package fanout

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiPreservesOrder(t *testing.T) {
	calls := []Call[int]{
		func(ctx context.Context) (int, error) { return 1, nil },
		func(ctx context.Context) (int, error) { return 2, nil },
		func(ctx context.Context) (int, error) { return 3, nil },
	}

	results, errs := Multi(context.Background(), calls)
	assert.Equal(t, []int{1, 2, 3}, results)
	for _, err := range errs {
		assert.NoError(t, err)
	}
}

func TestMultiContinuesAfterError(t *testing.T) {
	boom := errors.New("boom")
	calls := []Call[int]{
		func(ctx context.Context) (int, error) { return 1, nil },
		func(ctx context.Context) (int, error) { return 0, boom },
		func(ctx context.Context) (int, error) { return 3, nil },
	}

	results, errs := Multi(context.Background(), calls)
	assert.Equal(t, []int{1, 0, 3}, results)
	assert.NoError(t, errs[0])
	assert.ErrorIs(t, errs[1], boom)
	assert.NoError(t, errs[2])
}

func TestGatherPreservesOrderUnderConcurrency(t *testing.T) {
	calls := make([]Call[int], 20)
	for i := range calls {
		i := i
		calls[i] = func(ctx context.Context) (int, error) {
			time.Sleep(time.Duration(20-i) * time.Millisecond / 4)
			return i, nil
		}
	}

	results, errs := Gather(context.Background(), calls, 4)
	for i, r := range results {
		assert.Equal(t, i, r)
		assert.NoError(t, errs[i])
	}
}

func TestGatherBoundsConcurrency(t *testing.T) {
	var inFlight, maxSeen int32
	calls := make([]Call[struct{}], 30)
	for i := range calls {
		calls[i] = func(ctx context.Context) (struct{}, error) {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				max := atomic.LoadInt32(&maxSeen)
				if n <= max || atomic.CompareAndSwapInt32(&maxSeen, max, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return struct{}{}, nil
		}
	}

	_, _ = Gather(context.Background(), calls, 5)
	assert.LessOrEqual(t, atomic.LoadInt32(&maxSeen), int32(5))
}

func TestDosBuildsOneCallPerSlot(t *testing.T) {
	var built []int
	results, errs := Dos(context.Background(), 5, 2, func(i int) Call[int] {
		built = append(built, i)
		return func(ctx context.Context) (int, error) { return i * 10, nil }
	})

	assert.Equal(t, []int{0, 1, 2, 3, 4}, built)
	assert.Equal(t, []int{0, 10, 20, 30, 40}, results)
	for _, err := range errs {
		assert.NoError(t, err)
	}
}

func TestPacedGatherWaitsOnPacer(t *testing.T) {
	pacer := NewPacer(1000) // generous, should not meaningfully delay the test
	calls := []Call[int]{
		func(ctx context.Context) (int, error) { return 1, nil },
		func(ctx context.Context) (int, error) { return 2, nil },
	}

	results, errs := PacedGather(context.Background(), calls, 2, pacer)
	assert.ElementsMatch(t, []int{1, 2}, results)
	for _, err := range errs {
		assert.NoError(t, err)
	}
}

func TestMultiRespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := []Call[int]{
		func(ctx context.Context) (int, error) { return 1, nil },
	}

	_, errs := Multi(ctx, calls)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], context.Canceled)
}

func TestRunStagesRampsTowardTarget(t *testing.T) {
	pacer := NewPacer(1)
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	RunStages(ctx, pacer, []Stage{{Target: 50, Duration: 150 * time.Millisecond}})

	assert.InDelta(t, 50, float64(pacer.limiter.Limit()), 1)
}
