package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/cesizen/cesizen/internal/catalog"
	"github.com/cesizen/cesizen/internal/config"
	httpapi "github.com/cesizen/cesizen/internal/http"
	"github.com/cesizen/cesizen/internal/logging"
	"github.com/cesizen/cesizen/internal/pubsub"
	"github.com/cesizen/cesizen/internal/runner"
	"github.com/cesizen/cesizen/internal/storage"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Init(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := storage.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer repo.Close()

	provider, err := newProvider(ctx, cfg, repo)
	if err != nil {
		return err
	}
	loader := catalog.NewLoader(provider)

	opts := []runner.ManagerOption{
		runner.WithRecorder(repo),
		runner.WithIdleTTL(cfg.SessionIdleTTL),
	}
	if cfg.RedisURL != "" {
		publisher, err := pubsub.NewRedisPublisher(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer publisher.Close()
		opts = append(opts, runner.WithPublisher(publisher))
		log.Info().Msg("publishing session snapshots to redis")
	}
	manager := runner.NewSessionManager(opts...)

	api := httpapi.NewServer(manager, loader, repo, cfg.DevUser)
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	eg, egCtx := errgroup.WithContext(ctx)

	// A failed load is a catalog state; the API reports it and users can reload.
	eg.Go(func() error {
		loadCtx, cancel := context.WithTimeout(egCtx, cfg.CatalogTimeout)
		defer cancel()
		_ = loader.Load(loadCtx)
		return nil
	})

	eg.Go(func() error {
		manager.Run(egCtx)
		return nil
	})

	eg.Go(func() error {
		<-egCtx.Done()
		log.Info().Msg("shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		manager.Close(shutdownCtx)
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
			return err
		}
		log.Info().Msg("server shutdown complete")
		return nil
	})

	eg.Go(func() error {
		log.Info().Str("addr", server.Addr).Msg("starting cesizen server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	return eg.Wait()
}

// newProvider reads the catalog from the backend when one is configured,
// and from local storage otherwise, seeding it first.
func newProvider(ctx context.Context, cfg *config.Config, repo storage.Repository) (catalog.Provider, error) {
	if cfg.BackendURL != "" {
		log.Info().Str("backend", cfg.BackendURL).Msg("using remote exercise catalog")
		return catalog.NewHTTPProvider(cfg.BackendURL, cfg.CatalogTimeout), nil
	}

	switch {
	case cfg.SeedFile != "":
		exercises, err := catalog.LoadSeedFile(cfg.SeedFile)
		if err != nil {
			return nil, err
		}
		if err := catalog.Seed(ctx, repo, exercises); err != nil {
			return nil, err
		}
		log.Info().Str("file", cfg.SeedFile).Int("count", len(exercises)).Msg("seeded exercises")

	default:
		existing, err := repo.ListExercises(ctx)
		if err != nil {
			return nil, err
		}
		if len(existing) == 0 {
			if err := catalog.Seed(ctx, repo, catalog.DefaultExercises()); err != nil {
				return nil, err
			}
			log.Info().Msg("seeded default exercises")
		}
	}

	return catalog.NewStoreProvider(repo), nil
}
