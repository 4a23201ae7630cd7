package hooks

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition never became true")
}

func TestDispatchDeliversToRegisteredHandler(t *testing.T) {
	b := New(0, nil)
	defer b.Close()

	var got atomic.Value
	var wg sync.WaitGroup
	wg.Add(1)
	b.On(Success, func(payload any) {
		got.Store(payload)
		wg.Done()
	})

	b.Dispatch(Success, "ok")
	wg.Wait()

	assert.Equal(t, "ok", got.Load())
}

func TestDispatchOnlyReachesItsOwnCategory(t *testing.T) {
	b := New(0, nil)
	defer b.Close()

	var successCount, errorCount int32
	b.On(Success, func(payload any) { atomic.AddInt32(&successCount, 1) })
	b.On(Error, func(payload any) { atomic.AddInt32(&errorCount, 1) })

	b.Dispatch(Success, nil)
	waitFor(t, func() bool { return atomic.LoadInt32(&successCount) == 1 })

	assert.EqualValues(t, 0, atomic.LoadInt32(&errorCount))
}

func TestDispatchDropsWhenQueueFull(t *testing.T) {
	b := New(1, nil)
	defer b.Close()

	release := make(chan struct{})
	var delivered int32
	b.On(Progress, func(payload any) {
		<-release
		atomic.AddInt32(&delivered, 1)
	})

	// first dispatch occupies the single worker; subsequent ones queue
	// then overflow since capacity is 1
	for i := 0; i < 10; i++ {
		b.Dispatch(Progress, i)
	}

	close(release)
	waitFor(t, func() bool { return atomic.LoadInt32(&delivered) >= 1 })

	assert.Less(t, int(atomic.LoadInt32(&delivered)), 10)
}

func TestClearRemovesAllHandlers(t *testing.T) {
	b := New(0, nil)
	defer b.Close()

	var called int32
	b.On(Before, func(payload any) { atomic.AddInt32(&called, 1) })
	b.Clear()

	b.Dispatch(Before, nil)
	time.Sleep(20 * time.Millisecond)

	assert.EqualValues(t, 0, atomic.LoadInt32(&called))
}

func TestCloneCopiesHandlersButNotQueueState(t *testing.T) {
	b := New(4, nil)
	defer b.Close()

	var calls int32
	b.On(Retry, func(payload any) { atomic.AddInt32(&calls, 1) })

	clone := b.Clone()
	defer clone.Close()

	clone.Dispatch(Retry, nil)
	waitFor(t, func() bool { return atomic.LoadInt32(&calls) == 1 })

	b.Dispatch(Retry, nil)
	waitFor(t, func() bool { return atomic.LoadInt32(&calls) == 2 })
}

func TestHandlerPanicDoesNotCrashTheBus(t *testing.T) {
	b := New(0, nil)
	defer b.Close()

	var secondCalled int32
	b.On(After, func(payload any) { panic("boom") })
	b.On(After, func(payload any) { atomic.AddInt32(&secondCalled, 1) })

	b.Dispatch(After, nil)
	waitFor(t, func() bool { return atomic.LoadInt32(&secondCalled) == 1 })
}

func TestCloseIsIdempotent(t *testing.T) {
	b := New(0, nil)
	b.Close()
	require.NotPanics(t, func() { b.Close() })
}
