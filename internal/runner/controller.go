package runner

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/cesizen/cesizen/internal/domain"
	"github.com/cesizen/cesizen/internal/logging"
	"github.com/cesizen/cesizen/internal/metrics"
)

const (
	CountdownSeconds = 3
	TickInterval     = time.Second
)

// Snapshot is the observable state of a controller at one instant.
type Snapshot struct {
	Stage           domain.Stage     `json:"stage"`
	Running         bool             `json:"running"`
	Phase           domain.Phase     `json:"phase,omitempty"`
	Label           string           `json:"label,omitempty"`
	TimeRemaining   int              `json:"timeRemaining"`
	PhaseDuration   int              `json:"phaseDuration"`
	Cycle           int              `json:"cycle"`
	TotalCycles     int              `json:"totalCycles"`
	CyclesCompleted int              `json:"cyclesCompleted"`
	Countdown       int              `json:"countdown"`
	Fill            float64          `json:"fill"`
	Exercise        *domain.Exercise `json:"exercise,omitempty"`
	StartedAt       time.Time        `json:"startedAt,omitempty"`
	PausedFor       time.Duration    `json:"-"`
}

// Paused reports whether the session is active but not counting down.
func (s Snapshot) Paused() bool {
	return s.Stage == domain.StageActive && !s.Running
}

type session struct {
	exercise domain.Exercise

	countdown  int
	phase      domain.Phase
	remaining  int
	cycle      int
	cyclesDone int
	running    bool

	startedAt time.Time
	pausedAt  time.Time
	pausedFor time.Duration
}

// Controller drives one breathing session at a time through its countdown
// and phases. All transitions happen on ticks from a single timer handle
// that the controller acquires and releases with the session's stages.
type Controller struct {
	mu       sync.Mutex
	notifyMu sync.Mutex

	clock  clockwork.Clock
	sched  Scheduler
	logger zerolog.Logger

	stage   domain.Stage
	session *session

	timer TimerHandle
	gen   uint64

	observers map[int]func(Snapshot)
	nextObs   int
}

type Option func(*Controller)

func WithClock(clock clockwork.Clock) Option {
	return func(c *Controller) { c.clock = clock }
}

func WithScheduler(s Scheduler) Option {
	return func(c *Controller) { c.sched = s }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

func NewController(opts ...Option) *Controller {
	c := &Controller{
		stage:     domain.StageIdle,
		logger:    logging.Component("breathing"),
		observers: make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.clock == nil {
		c.clock = clockwork.NewRealClock()
	}
	if c.sched == nil {
		c.sched = NewClockScheduler(c.clock)
	}
	return c
}

// Subscribe registers fn to receive every state change, in order.
// fn runs on the goroutine that caused the change and must not call back
// into the controller.
func (c *Controller) Subscribe(fn func(Snapshot)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn

	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

// Start begins a new session with a 3 second countdown. Any session in
// progress is discarded first.
func (c *Controller) Start(e *domain.Exercise) error {
	if err := e.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	c.release()
	c.session = &session{
		exercise:  *e,
		countdown: CountdownSeconds,
		startedAt: c.clock.Now(),
	}
	c.stage = domain.StageCountdown
	c.arm()

	c.logger.Debug().Int64("exercise", e.ID).Str("name", e.Name).Msg("countdown started")
	c.commit()
	return nil
}

func (c *Controller) Pause() error {
	c.mu.Lock()
	if c.stage != domain.StageActive || !c.session.running {
		c.mu.Unlock()
		return domain.ErrNotRunning
	}

	c.release()
	c.session.running = false
	c.session.pausedAt = c.clock.Now()

	c.logger.Debug().Str("phase", string(c.session.phase)).Int("remaining", c.session.remaining).Msg("paused")
	c.commit()
	return nil
}

// Resume restarts a full one second tick cycle from the paused state.
func (c *Controller) Resume() error {
	c.mu.Lock()
	if c.stage != domain.StageActive || c.session.running {
		c.mu.Unlock()
		return domain.ErrNotPaused
	}

	s := c.session
	s.pausedFor += c.clock.Since(s.pausedAt)
	s.pausedAt = time.Time{}
	s.running = true
	c.arm()

	c.logger.Debug().Str("phase", string(s.phase)).Int("remaining", s.remaining).Msg("resumed")
	c.commit()
	return nil
}

// Stop cancels the session in progress and returns its last state.
func (c *Controller) Stop() (Snapshot, error) {
	c.mu.Lock()
	if c.stage != domain.StageCountdown && c.stage != domain.StageActive {
		c.mu.Unlock()
		return Snapshot{}, domain.ErrNoSession
	}

	c.release()
	last := c.snapshotLocked()
	c.session = nil
	c.stage = domain.StageIdle

	c.logger.Debug().Msg("session stopped")
	c.commit()
	return last, nil
}

func (c *Controller) AcknowledgeFinish() error {
	c.mu.Lock()
	if c.stage != domain.StageFinished {
		c.mu.Unlock()
		return domain.ErrNotFinished
	}

	c.session = nil
	c.stage = domain.StageIdle
	c.commit()
	return nil
}

// Close releases the timer and drops any session without notifying observers.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.release()
	c.session = nil
	c.stage = domain.StageIdle
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// arm acquires a fresh timer. Callers must hold mu and have released the
// previous handle.
func (c *Controller) arm() {
	c.gen++
	gen := c.gen
	c.timer = c.sched.Every(TickInterval, func() { c.tick(gen) })
}

// release cancels the active timer. Ticks already in flight carry a stale
// generation and are dropped.
func (c *Controller) release() {
	c.gen++
	if c.timer != nil {
		c.timer.Cancel()
		c.timer = nil
	}
}

func (c *Controller) tick(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.session == nil {
		c.mu.Unlock()
		metrics.TicksIgnored.Inc()
		c.logger.Debug().Uint64("generation", gen).Msg("ignoring tick from released timer")
		return
	}

	s := c.session
	switch c.stage {
	case domain.StageCountdown:
		if s.countdown > 1 {
			s.countdown--
			break
		}

		s.countdown = 0
		c.release()
		c.stage = domain.StageActive
		s.running = true
		s.cycle = 1
		c.enter(domain.PhaseInspiration)
		if c.stage == domain.StageActive {
			c.arm()
		}

	case domain.StageActive:
		if s.remaining > 1 {
			s.remaining--
			break
		}
		c.advance()
	}

	c.commit()
}

// advance leaves the current phase, wrapping to the next cycle or finishing.
func (c *Controller) advance() {
	s := c.session

	next, sameCycle := s.phase.Next()
	if !sameCycle {
		s.cyclesDone = s.cycle
		if s.cycle >= s.exercise.NumberCycles {
			c.finish()
			return
		}
		s.cycle++
	}
	c.enter(next)
}

// enter seeds a phase with its duration. Zero-length phases are skipped.
func (c *Controller) enter(p domain.Phase) {
	s := c.session

	if p == domain.PhaseExpiration && s.exercise.NumberCycles <= 0 {
		c.finish()
		return
	}

	d := domain.DurationFor(&s.exercise, p)
	s.phase = p
	s.remaining = d
	if d == 0 {
		c.advance()
		return
	}

	c.logger.Debug().Str("phase", string(p)).Int("duration", d).Int("cycle", s.cycle).Msg("phase started")
}

func (c *Controller) finish() {
	c.release()
	c.stage = domain.StageFinished
	c.session.running = false
	c.session.remaining = 0

	c.logger.Debug().Int("cycles", c.session.cyclesDone).Msg("session finished")
}

// commit publishes the current state and unlocks mu. notifyMu is taken
// before mu is released so observers see changes in order.
func (c *Controller) commit() {
	snap := c.snapshotLocked()
	observers := make([]func(Snapshot), 0, len(c.observers))
	for _, fn := range c.observers {
		observers = append(observers, fn)
	}

	c.notifyMu.Lock()
	c.mu.Unlock()
	defer c.notifyMu.Unlock()

	for _, fn := range observers {
		fn(snap)
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{Stage: c.stage}

	s := c.session
	if s == nil {
		return snap
	}

	ex := s.exercise
	snap.Exercise = &ex
	snap.TotalCycles = ex.NumberCycles
	snap.CyclesCompleted = s.cyclesDone
	snap.StartedAt = s.startedAt
	snap.PausedFor = s.pausedFor
	if !s.pausedAt.IsZero() {
		snap.PausedFor += c.clock.Since(s.pausedAt)
	}

	switch c.stage {
	case domain.StageCountdown:
		snap.Countdown = s.countdown
		snap.Label = domain.CountdownLabel

	case domain.StageActive:
		snap.Running = s.running
		snap.Phase = s.phase
		snap.Label = s.phase.Label()
		snap.TimeRemaining = s.remaining
		snap.PhaseDuration = domain.DurationFor(&s.exercise, s.phase)
		snap.Cycle = s.cycle
		snap.Fill = domain.FillRatio(s.phase, s.remaining, snap.PhaseDuration)

	case domain.StageFinished:
		snap.Cycle = s.cycle
		snap.Phase = s.phase
	}

	return snap
}
