package runner

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// TimerHandle is a periodic timer owned by a controller.
type TimerHandle interface {
	// Cancel stops further callbacks. It is idempotent and never blocks,
	// so it may be called from inside the callback itself.
	Cancel()
}

// Scheduler arms periodic timers.
type Scheduler interface {
	Every(d time.Duration, fn func()) TimerHandle
}

// ClockScheduler runs each timer on its own goroutine driven by a clockwork clock.
type ClockScheduler struct {
	clock clockwork.Clock
}

func NewClockScheduler(clock clockwork.Clock) *ClockScheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ClockScheduler{clock: clock}
}

func (s *ClockScheduler) Every(d time.Duration, fn func()) TimerHandle {
	h := &clockTimer{
		ticker: s.clock.NewTicker(d),
		done:   make(chan struct{}),
	}

	go func() {
		defer h.ticker.Stop()

		for {
			select {
			case <-h.ticker.Chan():
				select {
				case <-h.done:
					return
				default:
				}
				fn()

			case <-h.done:
				return
			}
		}
	}()

	return h
}

type clockTimer struct {
	ticker clockwork.Ticker
	done   chan struct{}
	once   sync.Once
}

func (t *clockTimer) Cancel() {
	t.once.Do(func() {
		close(t.done)
	})
}
