package vsm

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Container holds the single current state value of a view feature and
// routes action output into it. At most one observation is active per
// container; starting a new one cancels the previous one, and values a
// canceled observation delivers late are discarded.
//
// State values must be immutable: the container hands the same value to
// every subscriber and never copies it defensively.
type Container[T any] struct {
	logger   *slog.Logger
	dispatch Dispatcher
	onError  func(error)
	tap      TapFlag

	stateMu sync.RWMutex
	current T

	hookMu   sync.Mutex
	willFns  []func(T)
	didFns   []func(T)

	will *multicast[T]
	did  *multicast[T]

	obsMu      sync.Mutex
	generation atomic.Uint64
	cancel     context.CancelFunc

	groupMu sync.Mutex
	groups  map[string]*debounceGroup
	salt    string
}

func New[T any](initial T, opts ...Option) *Container[T] {
	options := &Options{
		logger:   slog.Default(),
		dispatch: NewSerialDispatcher(),
	}

	for _, opt := range opts {
		opt(options)
	}

	c := &Container[T]{
		logger:   options.logger,
		dispatch: options.dispatch,
		onError:  options.onError,
		tap:      options.tap,
		current:  initial,
		will:     newMulticast[T](),
		did:      newMulticast[T](),
		groups:   make(map[string]*debounceGroup),
		salt:     uuid.NewString(),
	}

	// New DidChange subscribers always see the state that is current at
	// subscription time.
	c.did.last = initial
	c.did.seen = true

	return c
}

// State returns the current state. It never blocks on a running observation.
func (c *Container[T]) State() T {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()

	return c.current
}

// WillChange returns a channel carrying each incoming state value before it
// becomes current. Cancel ctx to unsubscribe. Delivery is asynchronous; use
// OnWillChange when the pre-mutation ordering must be observed in place.
func (c *Container[T]) WillChange(ctx context.Context) <-chan T {
	return c.will.subscribe(ctx)
}

// DidChange returns a channel carrying each state value after it became
// current, starting with the state current at subscription time. Cancel ctx
// to unsubscribe.
func (c *Container[T]) DidChange(ctx context.Context) <-chan T {
	return c.did.subscribe(ctx)
}

// OnWillChange registers a hook that runs on the dispatch context with the
// incoming value, strictly before the current state is replaced. State()
// still returns the outgoing value at that point. Hooks may read state but
// must not start observations; that would re-enter the dispatcher.
func (c *Container[T]) OnWillChange(fn func(T)) {
	c.hookMu.Lock()
	defer c.hookMu.Unlock()

	c.willFns = append(c.willFns, fn)
}

// OnDidChange registers a hook that runs on the dispatch context with the
// value that just became current. Hooks may read state but must not start
// observations; that would re-enter the dispatcher.
func (c *Container[T]) OnDidChange(fn func(T)) {
	c.hookMu.Lock()
	defer c.hookMu.Unlock()

	c.didFns = append(c.didFns, fn)
}

// deliver writes value into the state slot unless the observation that
// produced it has been superseded. The liveness check runs inside the
// dispatched critical section, immediately before the write, so a value
// already in flight at supersession time is still discarded.
func (c *Container[T]) deliver(gen uint64, value T) {
	c.dispatch.Dispatch(func() {
		if c.generation.Load() != gen {
			return
		}

		c.tapWillChange(value)
		for _, fn := range c.willHooks() {
			fn(value)
		}
		c.will.publish(value)

		c.stateMu.Lock()
		c.current = value
		c.stateMu.Unlock()

		c.did.publish(value)
		for _, fn := range c.didHooks() {
			fn(value)
		}
		c.tapDidChange(value)
	})
}

func (c *Container[T]) willHooks() []func(T) {
	c.hookMu.Lock()
	defer c.hookMu.Unlock()

	return c.willFns
}

func (c *Container[T]) didHooks() []func(T) {
	c.hookMu.Lock()
	defer c.hookMu.Unlock()

	return c.didFns
}

// Close cancels the active observation and shuts down all subscriber
// channels. The container must not be observed after Close.
func (c *Container[T]) Close() {
	c.obsMu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.generation.Add(1)
	c.obsMu.Unlock()

	c.will.close()
	c.did.close()
}
