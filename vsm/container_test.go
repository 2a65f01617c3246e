package vsm_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsmkit/vsm_go/vsm"
)

func TestContainer_InitialState(t *testing.T) {
	t.Parallel()

	c := vsm.New("idle")
	t.Cleanup(c.Close)

	assert.Equal(t, "idle", c.State())
}

func TestContainer_ObserveValueIsSynchronous(t *testing.T) {
	t.Parallel()

	c := vsm.New("idle")
	t.Cleanup(c.Close)

	c.Observe("loaded")

	require.Equal(t, "loaded", c.State())
}

func TestContainer_WillChangePrecedesMutation(t *testing.T) {
	t.Parallel()

	c := vsm.New("old")
	t.Cleanup(c.Close)

	var (
		incoming string
		visible  string
	)
	c.OnWillChange(func(next string) {
		incoming = next
		visible = c.State()
	})

	c.Observe("new")

	assert.Equal(t, "new", incoming, "hook must see the incoming value")
	assert.Equal(t, "old", visible, "state must still be the outgoing value at hook time")
	assert.Equal(t, "new", c.State())
}

func TestContainer_DidChangeReplaysCurrent(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	c := vsm.New("idle")
	t.Cleanup(c.Close)

	states := c.DidChange(ctx)

	select {
	case state := <-states:
		assert.Equal(t, "idle", state)
	case <-ctx.Done():
		t.Fatal("no replay of the current state")
	}
}

func TestContainer_ObserveFromForeignGoroutine(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	c := vsm.New("idle")
	t.Cleanup(c.Close)

	states := c.DidChange(ctx)
	require.Equal(t, "idle", <-states)

	go c.Observe("loaded")

	select {
	case state := <-states:
		assert.Equal(t, "loaded", state)
	case <-ctx.Done():
		t.Fatal("no state change delivered")
	}

	assert.Equal(t, "loaded", c.State())
}

func TestContainer_DidChangeOrderMatchesWrites(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	c := vsm.New(0)
	t.Cleanup(c.Close)

	states := c.DidChange(ctx)
	require.Equal(t, 0, <-states)

	for i := 1; i <= 50; i++ {
		c.Observe(i)
	}

	for i := 1; i <= 50; i++ {
		require.Equal(t, i, <-states)
	}
}

func TestContainer_HooksRunForEveryTransition(t *testing.T) {
	t.Parallel()

	c := vsm.New("a")
	t.Cleanup(c.Close)

	var (
		mu  sync.Mutex
		got []string
	)
	c.OnDidChange(func(state string) {
		mu.Lock()
		got = append(got, state)
		mu.Unlock()
	})

	c.Observe("b")
	c.Observe("c")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"b", "c"}, got)
}

func TestLoopDispatcher_WritesOnTheLoop(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	loop := vsm.NewLoopDispatcher()
	go loop.Run(ctx)

	c := vsm.New("idle", vsm.WithDispatcher(loop))
	t.Cleanup(c.Close)

	c.Observe("loaded")

	require.Eventually(t, func() bool {
		return c.State() == "loaded"
	}, 5*time.Second, 10*time.Millisecond)
}
