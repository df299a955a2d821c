package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/cesizen/cesizen/internal/domain"
)

var (
	// ErrCatalogUnavailable matches every failure to reach the remote catalog.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrCatalogEmpty       = errors.New("exercise list not found")
)

// Provider is a source of breathing exercises.
type Provider interface {
	ListExercises(ctx context.Context) ([]domain.Exercise, error)
	GetExercise(ctx context.Context, id int64) (*domain.Exercise, error)
}

// NetworkError is a transport failure talking to the catalog backend.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("catalog request to %s failed: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrCatalogUnavailable }

// ServerError is a non-2xx answer from the catalog backend.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("catalog returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("catalog returned status %d: %s", e.StatusCode, e.Message)
}

func (e *ServerError) Is(target error) bool { return target == ErrCatalogUnavailable }

func findExercise(exercises []domain.Exercise, id int64) (*domain.Exercise, error) {
	for i := range exercises {
		if exercises[i].ID == id {
			e := exercises[i]
			return &e, nil
		}
	}
	return nil, domain.ErrExerciseNotFound
}
