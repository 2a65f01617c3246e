package vsm_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsmkit/vsm_go/vsm"
)

func TestDebounce_OnlyNewestClosureFires(t *testing.T) {
	t.Parallel()

	c := vsm.New("idle")
	t.Cleanup(c.Close)

	var first, second atomic.Int32

	c.DebounceKey("search", 100*time.Millisecond, func() { first.Add(1) })
	time.Sleep(20 * time.Millisecond)
	c.DebounceKey("search", 100*time.Millisecond, func() { second.Add(1) })

	require.Eventually(t, func() bool {
		return second.Load() == 1
	}, 5*time.Second, 10*time.Millisecond)

	// Wait past the original deadline of the replaced closure.
	time.Sleep(200 * time.Millisecond)

	assert.Equal(t, int32(0), first.Load(), "replaced closure must never fire")
	assert.Equal(t, int32(1), second.Load())
}

func TestDebounce_SameCallSiteCoalesces(t *testing.T) {
	t.Parallel()

	c := vsm.New("idle")
	t.Cleanup(c.Close)

	var fired atomic.Int32

	for i := 0; i < 5; i++ {
		c.Debounce(80*time.Millisecond, func() { fired.Add(1) })
	}

	require.Eventually(t, func() bool {
		return fired.Load() > 0
	}, 5*time.Second, 10*time.Millisecond)

	time.Sleep(200 * time.Millisecond)

	assert.Equal(t, int32(1), fired.Load(), "one burst from one call site is one firing")
}

func TestDebounce_DistinctCallSitesDoNotCoalesce(t *testing.T) {
	t.Parallel()

	c := vsm.New("idle")
	t.Cleanup(c.Close)

	var fired atomic.Int32

	c.Debounce(50*time.Millisecond, func() { fired.Add(1) })
	c.Debounce(50*time.Millisecond, func() { fired.Add(1) })

	require.Eventually(t, func() bool {
		return fired.Load() == 2
	}, 5*time.Second, 10*time.Millisecond)
}

func TestDebounce_ExplicitKeyGroupsAcrossCallSites(t *testing.T) {
	t.Parallel()

	c := vsm.New("idle")
	t.Cleanup(c.Close)

	var first, second atomic.Int32

	c.DebounceKey("shared", 80*time.Millisecond, func() { first.Add(1) })
	c.DebounceKey("shared", 80*time.Millisecond, func() { second.Add(1) })

	require.Eventually(t, func() bool {
		return second.Load() == 1
	}, 5*time.Second, 10*time.Millisecond)

	time.Sleep(150 * time.Millisecond)

	assert.Equal(t, int32(0), first.Load())
}

func TestDebounce_ObserveDebouncedKeepsLastValue(t *testing.T) {
	t.Parallel()

	c := vsm.New("idle")
	t.Cleanup(c.Close)

	seen := recordEmissions(c)

	for _, v := range []string{"s", "sh", "sho", "shoe"} {
		c.ObserveDebounced("query", 60*time.Millisecond, v)
	}

	require.Eventually(t, func() bool {
		return c.State() == "shoe"
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, []string{"shoe"}, seen.snapshot(), "intermediate values must be dropped, not delivered")
}

func TestDebounce_RepeatedBurstsKeepGroupContinuity(t *testing.T) {
	t.Parallel()

	c := vsm.New(0)
	t.Cleanup(c.Close)

	var fired atomic.Int32

	c.DebounceKey("k", 50*time.Millisecond, func() { fired.Add(1) })

	require.Eventually(t, func() bool {
		return fired.Load() == 1
	}, 5*time.Second, 10*time.Millisecond)

	// A second burst on the same identifier reuses the group.
	c.DebounceKey("k", 50*time.Millisecond, func() { fired.Add(1) })

	require.Eventually(t, func() bool {
		return fired.Load() == 2
	}, 5*time.Second, 10*time.Millisecond)
}
