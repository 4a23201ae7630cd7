// Package hooks implements the HookBus of spec.md §4.13/§9: the 7
// event categories the Python original fires via func.thread (an
// unbounded fire-and-forget goroutine-per-callback spawn), redesigned
// here around one bounded work queue with drop-on-overflow instead of
// unbounded spawning — spec.md §9's explicit resolution of the thread-leak
// risk an unthrottled event producer would otherwise create. Grounded on
// original_source/core/utils/api/base_request.py's dispatch/adispatch and
// clear_hooks.
package hooks

import (
	"sync"

	"go.uber.org/zap"
)

// Category is one of the 7 event classes a RequestCore fires into.
type Category string

const (
	Before   Category = "before"
	After    Category = "after"
	Retry    Category = "retry"
	Success  Category = "success"
	Error    Category = "error"
	Stream   Category = "stream"
	Progress Category = "progress"
)

// Handler receives whatever payload a category fires (a method/URL pair
// for before, a retry event for retry, an Envelope for after/success, an
// *envelope.ApiError for error, an SSE event or raw chunk for stream, a
// progress triple for progress). Kept as `any` so this package
// never needs to import envelope/sse and risk a cycle.
type Handler func(payload any)

// queuedEvent is one pending dispatch.
type queuedEvent struct {
	category Category
	payload  any
}

// Bus holds the registered handlers per category and a bounded dispatch
// queue serviced by one worker goroutine. A full queue drops the event
// rather than blocking the caller or spawning another goroutine — the
// redesign spec.md §9 calls for in place of the Python original's
// func.thread-per-callback.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Category][]Handler

	queue   chan queuedEvent
	closeWg sync.WaitGroup
	closeCh chan struct{}
	once    sync.Once

	log *zap.Logger
}

// New builds a Bus with a queue of the given capacity and starts its
// dispatch worker. A nil logger uses zap.NewNop().
func New(queueCapacity int, log *zap.Logger) *Bus {
	if queueCapacity <= 0 {
		queueCapacity = 256
	}
	if log == nil {
		log = zap.NewNop()
	}

	b := &Bus{
		handlers: make(map[Category][]Handler),
		queue:    make(chan queuedEvent, queueCapacity),
		closeCh:  make(chan struct{}),
		log:      log,
	}

	b.closeWg.Add(1)
	go b.run()

	return b
}

func (b *Bus) run() {
	defer b.closeWg.Done()
	for {
		select {
		case ev := <-b.queue:
			b.deliver(ev)
		case <-b.closeCh:
			// drain what's already queued, then exit
			for {
				select {
				case ev := <-b.queue:
					b.deliver(ev)
				default:
					return
				}
			}
		}
	}
}

func (b *Bus) deliver(ev queuedEvent) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[ev.category]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					b.log.Warn("hook handler panicked", zap.String("category", string(ev.category)), zap.Any("recover", r))
				}
			}()
			h(ev.payload)
		}()
	}
}

// On registers a handler for category, matching the Python original's
// on_before/on_after/etc. setters. Returns the Bus for fluent chaining,
// the way RequestCore's other setters chain.
func (b *Bus) On(category Category, h Handler) *Bus {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[category] = append(b.handlers[category], h)
	return b
}

// Clear removes every registered handler across all categories, matching
// clear_hooks.
func (b *Bus) Clear() *Bus {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = make(map[Category][]Handler)
	return b
}

// Clone returns a new Bus with the same registered handlers but its own
// queue/worker — matching RequestConfig.clone's "copy config, fresh
// runtime state" invariant (spec.md §3). Handlers are shared by reference
// since they're plain funcs, not live state.
func (b *Bus) Clone() *Bus {
	b.mu.RLock()
	defer b.mu.RUnlock()

	clone := New(cap(b.queue), b.log)
	for cat, hs := range b.handlers {
		clone.handlers[cat] = append([]Handler(nil), hs...)
	}
	return clone
}

// Dispatch enqueues payload for category's handlers, fire-and-forget. If
// the queue is full the event is dropped and logged at Warn — this is the
// one place this package deliberately loses data, by design, rather than
// blocking the request path or growing unbounded.
func (b *Bus) Dispatch(category Category, payload any) {
	select {
	case b.queue <- queuedEvent{category: category, payload: payload}:
	default:
		b.log.Warn("hook dispatch queue full, dropping event", zap.String("category", string(category)))
	}
}

// Close stops the dispatch worker after draining whatever is already
// queued. Safe to call multiple times.
func (b *Bus) Close() {
	b.once.Do(func() {
		close(b.closeCh)
	})
	b.closeWg.Wait()
}
