package catalog

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/cesizen/cesizen/internal/domain"
)

type seedFile struct {
	Exercises []domain.Exercise `yaml:"exercises"`
}

// DefaultExercises are the exercises shipped with a fresh install.
func DefaultExercises() []domain.Exercise {
	return []domain.Exercise{
		{ID: 1, Name: "Respiration 748", DurationInspiration: 7, DurationApnea: 4, DurationExpiration: 8, NumberCycles: 15},
		{ID: 2, Name: "Respiration 505", DurationInspiration: 5, DurationApnea: 0, DurationExpiration: 5, NumberCycles: 30},
		{ID: 3, Name: "Respiration 406", DurationInspiration: 5, DurationApnea: 0, DurationExpiration: 5, NumberCycles: 30},
	}
}

// LoadSeedFile reads exercises from a YAML file with a top-level
// "exercises" list. Every exercise must be startable.
func LoadSeedFile(path string) ([]domain.Exercise, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read seed file %s", path)
	}

	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrapf(err, "parse seed file %s", path)
	}

	for i := range f.Exercises {
		if err := f.Exercises[i].Validate(); err != nil {
			return nil, errors.Wrapf(err, "seed file %s, entry %d", path, i)
		}
	}
	return f.Exercises, nil
}

type exerciseSaver interface {
	SaveExercise(ctx context.Context, e *domain.Exercise) error
}

// Seed writes exercises to repo, updating those that already exist.
func Seed(ctx context.Context, repo exerciseSaver, exercises []domain.Exercise) error {
	for i := range exercises {
		if err := repo.SaveExercise(ctx, &exercises[i]); err != nil {
			return errors.Wrapf(err, "seed exercise %q", exercises[i].Name)
		}
	}
	return nil
}
