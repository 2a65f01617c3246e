package vsm

import (
	"context"
	"fmt"
	"iter"
	"runtime"
	"time"
)

type debounceGroup struct {
	timer    *time.Timer
	deadline time.Time
	fn       func()
}

// Debounce coalesces rapid repeated calls from the same call site: only the
// closure passed to the most recent call runs, once quiet has elapsed with
// no further call. Calls from distinct source locations never coalesce; use
// DebounceKey to group across call sites.
//
// The released closure runs on the timer goroutine. Observe calls it makes
// are serialized by the container's dispatcher like any other.
func (c *Container[T]) Debounce(quiet time.Duration, fn func()) {
	c.debounce(c.siteKey("", 2), quiet, fn)
}

// DebounceKey coalesces like Debounce but groups by an explicit key instead
// of the call site.
func (c *Container[T]) DebounceKey(key string, quiet time.Duration, fn func()) {
	c.debounce(key, quiet, fn)
}

// ObserveDebounced is Observe behind a debounce group. An empty key derives
// the group from the call site.
func (c *Container[T]) ObserveDebounced(key string, quiet time.Duration, value T) {
	c.debounce(c.siteKey(key, 2), quiet, func() { c.Observe(value) })
}

// ObserveFutureDebounced is ObserveFuture behind a debounce group. An empty
// key derives the group from the call site.
func (c *Container[T]) ObserveFutureDebounced(key string, quiet time.Duration, fn func(ctx context.Context) (T, error)) {
	c.debounce(c.siteKey(key, 2), quiet, func() { c.ObserveFuture(fn) })
}

// ObserveStreamDebounced is ObserveStream behind a debounce group. An empty
// key derives the group from the call site.
func (c *Container[T]) ObserveStreamDebounced(key string, quiet time.Duration, ch <-chan T) {
	c.debounce(c.siteKey(key, 2), quiet, func() { c.ObserveStream(ch) })
}

// ObserveSeqDebounced is ObserveSeq behind a debounce group. An empty key
// derives the group from the call site.
func (c *Container[T]) ObserveSeqDebounced(key string, quiet time.Duration, fn func(ctx context.Context) iter.Seq2[T, error]) {
	c.debounce(c.siteKey(key, 2), quiet, func() { c.ObserveSeq(fn) })
}

// siteKey returns key unchanged when the caller supplied one. Otherwise the
// group key is the caller's file:line salted with a per-container token, so
// derived keys can never collide with explicit ones or with the same call
// site on another container.
func (c *Container[T]) siteKey(key string, skip int) string {
	if key != "" {
		return key
	}

	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		file, line = "unknown", 0
	}

	return fmt.Sprintf("%s:%d#%s", file, line, c.salt)
}

func (c *Container[T]) debounce(key string, quiet time.Duration, fn func()) {
	c.groupMu.Lock()
	defer c.groupMu.Unlock()

	group, ok := c.groups[key]
	if !ok {
		group = &debounceGroup{}
		c.groups[key] = group
		group.fn = fn
		group.deadline = time.Now().Add(quiet)
		group.timer = time.AfterFunc(quiet, func() { c.release(group) })
		return
	}

	group.fn = fn
	group.deadline = time.Now().Add(quiet)
	group.timer.Reset(quiet)
}

// release runs the newest pending closure of a group whose quiet period has
// elapsed. A timer that fired while the group was being re-armed is
// detected by the deadline check and does nothing; the reset timer fires
// again later.
func (c *Container[T]) release(group *debounceGroup) {
	c.groupMu.Lock()
	if time.Now().Before(group.deadline) {
		c.groupMu.Unlock()
		return
	}

	fn := group.fn
	group.fn = nil
	c.groupMu.Unlock()

	if fn != nil {
		fn()
	}
}
