package catalog

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cesizen/cesizen/internal/domain"
	"github.com/cesizen/cesizen/internal/logging"
	"github.com/cesizen/cesizen/internal/metrics"
)

// LoadFailedMessage is shown to users when the catalog cannot be loaded.
const LoadFailedMessage = "Impossible de charger les exercices. Veuillez réessayer plus tard."

type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateFailed  State = "failed"
)

// Status is the observable load state of a Loader.
type Status struct {
	State   State  `json:"state"`
	Message string `json:"message,omitempty"`
	Err     error  `json:"-"`
}

// Loader caches the exercise list of a Provider. Its state is independent
// of any running session.
type Loader struct {
	provider Provider
	logger   zerolog.Logger

	mu        sync.RWMutex
	state     State
	err       error
	exercises []domain.Exercise
}

func NewLoader(p Provider) *Loader {
	return &Loader{
		provider: p,
		logger:   logging.Component("catalog"),
		state:    StateLoading,
	}
}

// Load fetches the catalog once. Failures are kept in the loader state and
// also returned.
func (l *Loader) Load(ctx context.Context) error {
	exercises, err := l.provider.ListExercises(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()

	if err != nil {
		l.state = StateFailed
		l.err = err
		l.exercises = nil
		metrics.CatalogLoads.WithLabelValues("failed").Inc()
		metrics.CatalogExercises.Set(0)
		l.logger.Error().Err(err).Msg("failed to load exercises")
		return err
	}

	l.state = StateReady
	l.err = nil
	l.exercises = exercises
	metrics.CatalogLoads.WithLabelValues("ready").Inc()
	metrics.CatalogExercises.Set(float64(len(exercises)))
	l.logger.Info().Int("count", len(exercises)).Msg("exercises loaded")
	return nil
}

// Reload puts the loader back into the loading state and fetches again.
func (l *Loader) Reload(ctx context.Context) error {
	l.mu.Lock()
	l.state = StateLoading
	l.mu.Unlock()

	return l.Load(ctx)
}

func (l *Loader) Status() Status {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s := Status{State: l.state, Err: l.err}
	if l.state == StateFailed {
		s.Message = LoadFailedMessage
	}
	return s
}

// Exercises returns a copy of the cached list.
func (l *Loader) Exercises() []domain.Exercise {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return append([]domain.Exercise(nil), l.exercises...)
}

func (l *Loader) Find(id int64) (*domain.Exercise, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return findExercise(l.exercises, id)
}
