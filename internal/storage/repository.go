package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/cesizen/cesizen/internal/domain"
)

type Repository interface {
	SaveExercise(ctx context.Context, e *domain.Exercise) error

	ListExercises(ctx context.Context) ([]domain.Exercise, error)

	GetExercise(ctx context.Context, id int64) (*domain.Exercise, error)

	SaveExerciseLog(ctx context.Context, l *domain.ExerciseLog) error

	GetLogsByUser(ctx context.Context, userID string) ([]domain.ExerciseLog, error)

	GetRecentLogs(ctx context.Context, userID string, since time.Time) ([]domain.ExerciseLog, error)

	GetLogStats(ctx context.Context, userID string) (*LogStats, error)

	Close() error
}

type LogStats struct {
	TotalSessions     int     `json:"totalSessions"`
	CompletedCount    int     `json:"completedCount"`
	CompletionRate    float64 `json:"completionRate"`
	TotalBreathingSec int     `json:"totalBreathingSec"`
	FavouriteExercise string  `json:"favouriteExercise,omitempty"`
}

// Open returns the repository for driver ("sqlite3" or "postgres").
func Open(driver, dsn string) (Repository, error) {
	var (
		repo Repository
		err  error
	)

	switch driver {
	case "sqlite3", "sqlite":
		repo, err = NewSQLiteRepository(dsn)
	case "postgres":
		repo, err = NewPostgresRepository(dsn)
	default:
		return nil, errors.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	return repo, nil
}
