package catalog

import (
	"context"

	"github.com/cesizen/cesizen/internal/domain"
	"github.com/cesizen/cesizen/internal/storage"
)

// StoreProvider serves the catalog from local storage.
type StoreProvider struct {
	repo storage.Repository
}

func NewStoreProvider(repo storage.Repository) *StoreProvider {
	return &StoreProvider{repo: repo}
}

func (p *StoreProvider) ListExercises(ctx context.Context) ([]domain.Exercise, error) {
	exercises, err := p.repo.ListExercises(ctx)
	if err != nil {
		return nil, err
	}
	if len(exercises) == 0 {
		return nil, ErrCatalogEmpty
	}
	return exercises, nil
}

func (p *StoreProvider) GetExercise(ctx context.Context, id int64) (*domain.Exercise, error) {
	return p.repo.GetExercise(ctx, id)
}
