package runner

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/cesizen/cesizen/internal/domain"
	"github.com/cesizen/cesizen/internal/logging"
	"github.com/cesizen/cesizen/internal/metrics"
)

const (
	defaultIdleTTL   = time.Hour
	cleanupInterval  = 5 * time.Minute
	subscriberBuffer = 16
	outboxSize       = 256
	recordTimeout    = 5 * time.Second
	publishTimeout   = 2 * time.Second
)

// Recorder persists exercise logs.
type Recorder interface {
	SaveExerciseLog(ctx context.Context, l *domain.ExerciseLog) error
}

// Publisher fans snapshots out to other instances.
type Publisher interface {
	Publish(ctx context.Context, sessionID string, snap Snapshot) error
}

// SessionView is a snapshot tagged with the session it belongs to.
type SessionView struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	Snapshot
}

type sessionEntry struct {
	id     string
	userID string
	ctrl   *Controller
	unsub  func()

	mu           sync.Mutex
	lastActivity time.Time
	finished     bool
	closed       bool
	subs         map[int]chan Snapshot
	nextSub      int
}

type published struct {
	sessionID string
	snap      Snapshot
}

// SessionManager owns one controller per session and at most one session
// per user.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry
	byUser   map[string]string

	clock     clockwork.Clock
	sched     Scheduler
	recorder  Recorder
	publisher Publisher
	idleTTL   time.Duration
	logger    zerolog.Logger

	outbox    chan published
	recording sync.WaitGroup
}

type ManagerOption func(*SessionManager)

func WithManagerClock(clock clockwork.Clock) ManagerOption {
	return func(m *SessionManager) { m.clock = clock }
}

// WithManagerScheduler shares one scheduler across all controllers.
func WithManagerScheduler(s Scheduler) ManagerOption {
	return func(m *SessionManager) { m.sched = s }
}

func WithRecorder(r Recorder) ManagerOption {
	return func(m *SessionManager) { m.recorder = r }
}

func WithPublisher(p Publisher) ManagerOption {
	return func(m *SessionManager) { m.publisher = p }
}

func WithIdleTTL(d time.Duration) ManagerOption {
	return func(m *SessionManager) { m.idleTTL = d }
}

func NewSessionManager(opts ...ManagerOption) *SessionManager {
	m := &SessionManager{
		sessions: make(map[string]*sessionEntry),
		byUser:   make(map[string]string),
		idleTTL:  defaultIdleTTL,
		logger:   logging.Component("session-manager"),
		outbox:   make(chan published, outboxSize),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.clock == nil {
		m.clock = clockwork.NewRealClock()
	}
	if m.sched == nil {
		m.sched = NewClockScheduler(m.clock)
	}
	return m
}

// Run drives the publish worker and the idle cleanup loop until ctx is done.
func (m *SessionManager) Run(ctx context.Context) {
	ticker := m.clock.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case p := <-m.outbox:
			m.publish(ctx, p)
		case <-ticker.Chan():
			m.cleanupIdleSessions(ctx)
		}
	}
}

// StartSession starts a new session for userID. A live session of the same
// user is replaced atomically, then stopped and recorded as abandoned.
func (m *SessionManager) StartSession(ctx context.Context, userID string, e *domain.Exercise) (SessionView, error) {
	if err := e.Validate(); err != nil {
		return SessionView{}, err
	}

	entry := &sessionEntry{
		id:           uuid.New().String(),
		userID:       userID,
		lastActivity: m.clock.Now(),
		subs:         make(map[int]chan Snapshot),
	}
	entry.ctrl = NewController(
		WithClock(m.clock),
		WithScheduler(m.sched),
		WithLogger(m.logger.With().Str("session", entry.id).Logger()),
	)
	entry.unsub = entry.ctrl.Subscribe(func(s Snapshot) { m.observe(entry, s) })

	// Observers never take m.mu, so the controller may start under it.
	m.mu.Lock()
	if _, exists := m.sessions[entry.id]; exists {
		m.mu.Unlock()
		entry.unsub()
		entry.ctrl.Close()
		return SessionView{}, domain.ErrSessionExists
	}
	if err := entry.ctrl.Start(e); err != nil {
		m.mu.Unlock()
		entry.unsub()
		entry.ctrl.Close()
		return SessionView{}, err
	}
	var previous *sessionEntry
	if id, ok := m.byUser[userID]; ok {
		previous = m.sessions[id]
	}
	m.sessions[entry.id] = entry
	m.byUser[userID] = entry.id
	m.mu.Unlock()

	metrics.SessionsStarted.Inc()
	metrics.ActiveSessions.Inc()

	if previous != nil {
		m.endSession(ctx, previous)
	}

	m.logger.Info().Str("session", entry.id).Str("user", userID).Int64("exercise", e.ID).Msg("session started")

	return entry.view(), nil
}

func (m *SessionManager) GetSession(id string) (SessionView, bool) {
	entry, ok := m.lookup(id)
	if !ok {
		return SessionView{}, false
	}
	return entry.view(), true
}

// SessionForUser returns the live session of userID, if any.
func (m *SessionManager) SessionForUser(userID string) (SessionView, bool) {
	m.mu.Lock()
	id, ok := m.byUser[userID]
	m.mu.Unlock()
	if !ok {
		return SessionView{}, false
	}
	return m.GetSession(id)
}

func (m *SessionManager) Pause(id string) error {
	entry, ok := m.lookup(id)
	if !ok {
		return domain.ErrSessionNotFound
	}
	return entry.ctrl.Pause()
}

func (m *SessionManager) Resume(id string) error {
	entry, ok := m.lookup(id)
	if !ok {
		return domain.ErrSessionNotFound
	}
	return entry.ctrl.Resume()
}

// StopSession cancels a session, records it as abandoned and forgets it.
func (m *SessionManager) StopSession(ctx context.Context, id string) error {
	entry, ok := m.lookup(id)
	if !ok {
		return domain.ErrSessionNotFound
	}

	last, err := entry.ctrl.Stop()
	if err != nil {
		return err
	}

	m.record(ctx, entry, last, domain.LogAbandoned)
	m.remove(entry)
	return nil
}

// Acknowledge clears a finished session.
func (m *SessionManager) Acknowledge(id string) error {
	entry, ok := m.lookup(id)
	if !ok {
		return domain.ErrSessionNotFound
	}

	if err := entry.ctrl.AcknowledgeFinish(); err != nil {
		return err
	}

	m.remove(entry)
	return nil
}

// Subscribe returns a channel of snapshots for the session, starting with
// the current state. Slow consumers miss updates rather than block ticks.
func (m *SessionManager) Subscribe(id string) (<-chan Snapshot, func(), bool) {
	entry, ok := m.lookup(id)
	if !ok {
		return nil, nil, false
	}

	ch := make(chan Snapshot, subscriberBuffer)
	current := entry.ctrl.Snapshot()

	entry.mu.Lock()
	if entry.closed {
		entry.mu.Unlock()
		return nil, nil, false
	}
	subID := entry.nextSub
	entry.nextSub++
	entry.subs[subID] = ch
	ch <- current
	entry.mu.Unlock()

	cancel := func() {
		entry.mu.Lock()
		defer entry.mu.Unlock()
		if c, ok := entry.subs[subID]; ok {
			delete(entry.subs, subID)
			close(c)
		}
	}
	return ch, cancel, true
}

// Close stops every session, recording live ones as abandoned, and waits for
// pending completed-session logs.
func (m *SessionManager) Close(ctx context.Context) {
	m.mu.Lock()
	entries := make([]*sessionEntry, 0, len(m.sessions))
	for _, e := range m.sessions {
		entries = append(entries, e)
	}
	m.mu.Unlock()

	for _, e := range entries {
		m.endSession(ctx, e)
	}
	m.recording.Wait()
}

func (m *SessionManager) lookup(id string) (*sessionEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[id]
	return e, ok
}

// endSession stops a live session if needed and removes it.
func (m *SessionManager) endSession(ctx context.Context, entry *sessionEntry) {
	if last, err := entry.ctrl.Stop(); err == nil {
		m.record(ctx, entry, last, domain.LogAbandoned)
	}
	m.remove(entry)
}

func (m *SessionManager) remove(entry *sessionEntry) {
	m.mu.Lock()
	if _, ok := m.sessions[entry.id]; !ok {
		m.mu.Unlock()
		return
	}
	delete(m.sessions, entry.id)
	if m.byUser[entry.userID] == entry.id {
		delete(m.byUser, entry.userID)
	}
	m.mu.Unlock()

	entry.unsub()
	entry.ctrl.Close()

	entry.mu.Lock()
	entry.closed = true
	for id, ch := range entry.subs {
		delete(entry.subs, id)
		close(ch)
	}
	entry.mu.Unlock()

	metrics.ActiveSessions.Dec()
}

// observe runs on the controller's notifying goroutine; it must not block.
func (m *SessionManager) observe(entry *sessionEntry, s Snapshot) {
	entry.mu.Lock()
	entry.lastActivity = m.clock.Now()
	justFinished := s.Stage == domain.StageFinished && !entry.finished
	if justFinished {
		entry.finished = true
	}
	if !entry.closed {
		for _, ch := range entry.subs {
			select {
			case ch <- s:
			default:
			}
		}
	}
	entry.mu.Unlock()

	if m.publisher != nil {
		select {
		case m.outbox <- published{sessionID: entry.id, snap: s}:
		default:
			m.logger.Warn().Str("session", entry.id).Msg("publish outbox full, dropping snapshot")
		}
	}

	if justFinished {
		m.recording.Add(1)
		go func() {
			defer m.recording.Done()
			ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
			defer cancel()
			m.record(ctx, entry, s, domain.LogCompleted)
		}()
	}
}

func (m *SessionManager) record(ctx context.Context, entry *sessionEntry, s Snapshot, status domain.LogStatus) {
	metrics.SessionsEnded.WithLabelValues(string(status)).Inc()

	if m.recorder == nil || s.Exercise == nil {
		return
	}

	l := domain.NewExerciseLog("", entry.userID, s.Exercise, status, s.StartedAt, m.clock.Now())
	l.CyclesCompleted = s.CyclesCompleted
	l.PausedSeconds = int(s.PausedFor.Seconds())

	if err := m.recorder.SaveExerciseLog(ctx, l); err != nil {
		metrics.RecordErrors.Inc()
		m.logger.Error().Err(err).Str("session", entry.id).Msg("failed to record exercise log")
		return
	}
	m.logger.Info().Str("session", entry.id).Str("status", string(status)).Int("cycles", l.CyclesCompleted).Msg("exercise log recorded")
}

func (m *SessionManager) publish(ctx context.Context, p published) {
	if m.publisher == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := m.publisher.Publish(ctx, p.sessionID, p.snap); err != nil {
		m.logger.Warn().Err(err).Str("session", p.sessionID).Msg("failed to publish snapshot")
	}
}

func (m *SessionManager) cleanupIdleSessions(ctx context.Context) {
	cutoff := m.clock.Now().Add(-m.idleTTL)

	m.mu.Lock()
	var stale []*sessionEntry
	for _, e := range m.sessions {
		e.mu.Lock()
		idle := e.lastActivity.Before(cutoff)
		e.mu.Unlock()
		if idle {
			stale = append(stale, e)
		}
	}
	m.mu.Unlock()

	for _, e := range stale {
		m.logger.Info().Str("session", e.id).Msg("removing idle session")
		m.endSession(ctx, e)
	}
}

func (e *sessionEntry) view() SessionView {
	return SessionView{
		ID:       e.id,
		UserID:   e.userID,
		Snapshot: e.ctrl.Snapshot(),
	}
}
