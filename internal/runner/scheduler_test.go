package runner_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cesizen/cesizen/internal/runner"
)

// manualScheduler hands timers to the test, which fires them explicitly.
type manualScheduler struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	mu        sync.Mutex
	fn        func()
	cancelled bool
}

func (t *manualTimer) Cancel() {
	t.mu.Lock()
	t.cancelled = true
	t.mu.Unlock()
}

func (t *manualTimer) isCancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

func (s *manualScheduler) Every(_ time.Duration, fn func()) runner.TimerHandle {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &manualTimer{fn: fn}
	s.timers = append(s.timers, t)
	return t
}

func (s *manualScheduler) active() []*manualTimer {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*manualTimer
	for _, t := range s.timers {
		if !t.isCancelled() {
			out = append(out, t)
		}
	}
	return out
}

func (s *manualScheduler) all() []*manualTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*manualTimer(nil), s.timers...)
}

// tick fires every timer that is live when the tick begins, as one elapsed second.
func (s *manualScheduler) tick() {
	for _, t := range s.active() {
		if !t.isCancelled() {
			t.fn()
		}
	}
}

func (s *manualScheduler) ticks(n int) {
	for i := 0; i < n; i++ {
		s.tick()
	}
}

func TestClockScheduler_FiresOnClock(t *testing.T) {
	fc := clockwork.NewFakeClock()
	sched := runner.NewClockScheduler(fc)

	var fired atomic.Int32
	h := sched.Every(time.Second, func() { fired.Add(1) })
	defer h.Cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for i := 1; i <= 3; i++ {
		require.NoError(t, fc.BlockUntilContext(ctx, 1))
		fc.Advance(time.Second)

		want := int32(i)
		require.Eventually(t, func() bool { return fired.Load() == want }, time.Second, 5*time.Millisecond)
	}
}

func TestClockScheduler_CancelStopsCallbacks(t *testing.T) {
	fc := clockwork.NewFakeClock()
	sched := runner.NewClockScheduler(fc)

	var fired atomic.Int32
	h := sched.Every(time.Second, func() { fired.Add(1) })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, fc.BlockUntilContext(ctx, 1))

	h.Cancel()
	h.Cancel()

	fc.Advance(5 * time.Second)
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, int32(0), fired.Load())
}

func TestClockScheduler_CancelFromCallback(t *testing.T) {
	fc := clockwork.NewFakeClock()
	sched := runner.NewClockScheduler(fc)

	var fired atomic.Int32
	var h runner.TimerHandle
	var hMu sync.Mutex

	hMu.Lock()
	h = sched.Every(time.Second, func() {
		fired.Add(1)
		hMu.Lock()
		h.Cancel()
		hMu.Unlock()
	})
	hMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, fc.BlockUntilContext(ctx, 1))

	fc.Advance(time.Second)
	require.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)

	fc.Advance(3 * time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}
