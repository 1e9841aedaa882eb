package clock

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestManualFiresInDeadlineOrder(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	var order []string

	m.AfterFunc(1500*time.Millisecond, func() { order = append(order, "slow") })
	m.AfterFunc(time.Second, func() { order = append(order, "fast") })
	m.AfterFunc(time.Second, func() { order = append(order, "fast-second") })

	m.Advance(999 * time.Millisecond)
	require.Empty(t, order)
	require.Equal(t, 3, m.Pending())

	m.Advance(time.Millisecond)
	require.Equal(t, []string{"fast", "fast-second"}, order)

	m.Advance(time.Second)
	require.Equal(t, []string{"fast", "fast-second", "slow"}, order)
	require.Zero(t, m.Pending())
}

func TestManualStopPreventsCallback(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	fired := false
	timer := m.AfterFunc(time.Second, func() { fired = true })

	require.True(t, timer.Stop())
	require.False(t, timer.Stop())
	m.Advance(2 * time.Second)
	require.False(t, fired)
}

func TestManualRunsChainedCallbacksWithinWindow(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	var seen []time.Time

	m.AfterFunc(time.Second, func() {
		seen = append(seen, m.Now())
		m.AfterFunc(time.Second, func() { seen = append(seen, m.Now()) })
	})

	m.Advance(3 * time.Second)
	require.Len(t, seen, 2)
	require.True(t, seen[0].Equal(time.Unix(1, 0)))
	require.True(t, seen[1].Equal(time.Unix(2, 0)))
	require.True(t, m.Now().Equal(time.Unix(3, 0)))
}

func TestRealAfterFuncFires(t *testing.T) {
	var fired atomic.Bool
	done := make(chan struct{})
	Real{}.AfterFunc(5*time.Millisecond, func() {
		fired.Store(true)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
	require.True(t, fired.Load())
}
