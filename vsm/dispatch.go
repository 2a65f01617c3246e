package vsm

import (
	"context"
	"sync"
)

// Dispatcher serializes state mutation and notification. Every write to a
// Container's current state goes through Dispatch, so two dispatchers must
// never be shared between containers that expect independent ordering.
type Dispatcher interface {
	Dispatch(fn func())
}

// NewSerialDispatcher returns the default dispatcher: fn runs inline on the
// calling goroutine, serialized by a mutex.
func NewSerialDispatcher() Dispatcher {
	return &serialDispatcher{}
}

type serialDispatcher struct {
	mu sync.Mutex
}

func (d *serialDispatcher) Dispatch(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	fn()
}

// LoopDispatcher queues dispatched functions and drains them on the single
// goroutine that calls Run. Use it when state must mutate on a dedicated
// UI loop instead of the caller's goroutine.
type LoopDispatcher struct {
	mu    sync.Mutex
	queue []func()
	wake  chan struct{}
}

func NewLoopDispatcher() *LoopDispatcher {
	return &LoopDispatcher{
		wake: make(chan struct{}, 1),
	}
}

func (d *LoopDispatcher) Dispatch(fn func()) {
	d.mu.Lock()
	d.queue = append(d.queue, fn)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Run drains dispatched functions in FIFO order until ctx is canceled.
// It blocks; run it on the goroutine that owns the UI.
func (d *LoopDispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case <-d.wake:
			d.drain()
		}
	}
}

func (d *LoopDispatcher) drain() {
	for {
		d.mu.Lock()
		if len(d.queue) == 0 {
			d.mu.Unlock()
			return
		}
		fn := d.queue[0]
		d.queue = d.queue[1:]
		d.mu.Unlock()

		fn()
	}
}
