package vsm

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
)

// begin supersedes the active observation: cancel-then-assign happens under
// one lock so two concurrent observe calls can never both believe they own
// the slot.
func (c *Container[T]) begin() (uint64, context.Context) {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	gen := c.generation.Add(1)
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	return gen, ctx
}

// Observe cancels the active observation and makes value the current state.
// With the default dispatcher the write completes before Observe returns.
func (c *Container[T]) Observe(value T) {
	gen, _ := c.begin()
	c.deliver(gen, value)
}

// ObserveFuture cancels the active observation and resolves fn on a new
// goroutine. The resulting state is written unless the observation was
// superseded in the meantime. A non-nil error terminates the observation
// without touching the current state.
func (c *Container[T]) ObserveFuture(fn func(ctx context.Context) (T, error)) {
	gen, ctx := c.begin()

	go func() {
		value, err := fn(ctx)
		if err != nil {
			if ctx.Err() == nil {
				c.observationFailed(fmt.Errorf("could not resolve future state: %w", err))
			}
			return
		}

		c.deliver(gen, value)
	}()
}

// ObserveStream cancels the active observation and consumes ch, writing
// every received value in order. Consumption stops when ch is closed or the
// observation is superseded.
func (c *Container[T]) ObserveStream(ch <-chan T) {
	gen, ctx := c.begin()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return

			case value, ok := <-ch:
				if !ok {
					return
				}
				c.deliver(gen, value)
			}
		}
	}()
}

// ObserveSeq cancels the active observation and iterates the sequence
// produced by fn, writing every yielded value in order. The producer
// receives the observation context and should stop yielding once it is
// canceled; stale values are discarded at the write boundary regardless.
// Yielding a non-nil error terminates the observation.
func (c *Container[T]) ObserveSeq(fn func(ctx context.Context) iter.Seq2[T, error]) {
	gen, ctx := c.begin()

	go func() {
		for value, err := range fn(ctx) {
			if err != nil {
				if ctx.Err() == nil {
					c.observationFailed(fmt.Errorf("could not advance state sequence: %w", err))
				}
				return
			}

			if ctx.Err() != nil {
				return
			}

			c.deliver(gen, value)
		}
	}()
}

// observationFailed absorbs a producer failure. Nothing is ever propagated
// back to the observe caller; the view simply keeps rendering the last
// state that was delivered.
func (c *Container[T]) observationFailed(err error) {
	if c.onError != nil {
		c.onError(err)
		return
	}

	c.logger.Error("observation terminated without a state", slog.String("err", err.Error()))
}
