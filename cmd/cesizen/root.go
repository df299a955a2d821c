package main

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/cesizen/cesizen/internal/catalog"
	"github.com/cesizen/cesizen/internal/domain"
	"github.com/cesizen/cesizen/internal/logging"
	"github.com/cesizen/cesizen/internal/storage"
)

var (
	logLevel   string
	backendURL string
	dbPath     string
	dbDriver   string
)

var rootCmd = &cobra.Command{
	Use:   "cesizen",
	Short: "CesiZen breathing exercises in the terminal",
	Long: `cesizen runs the CesiZen cardiac coherence breathing exercises
from the terminal and manages the local exercise catalog.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.InitWithWriter(os.Stderr, logLevel, "text")
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", "", "CesiZen backend URL to read exercises from")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Local database holding exercises and logs")
	rootCmd.PersistentFlags().StringVar(&dbDriver, "db-driver", "sqlite3", "Database driver for --db (sqlite3 or postgres)")

	rootCmd.AddCommand(exercisesCmd)
	rootCmd.AddCommand(breatheCmd)
	rootCmd.AddCommand(seedCmd)
}

// openRepository opens --db, or returns nil when the flag is unset.
func openRepository() (storage.Repository, error) {
	if dbPath == "" {
		return nil, nil
	}
	repo, err := storage.Open(dbDriver, dbPath)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", dbPath)
	}
	return repo, nil
}

// catalogProvider picks the remote backend, then the local database, then
// the built-in exercises.
func catalogProvider(repo storage.Repository) catalog.Provider {
	switch {
	case backendURL != "":
		return catalog.NewHTTPProvider(backendURL, 10*time.Second)
	case repo != nil:
		return catalog.NewStoreProvider(repo)
	default:
		return builtinProvider{}
	}
}

type builtinProvider struct{}

func (builtinProvider) ListExercises(context.Context) ([]domain.Exercise, error) {
	return catalog.DefaultExercises(), nil
}

func (builtinProvider) GetExercise(_ context.Context, id int64) (*domain.Exercise, error) {
	for _, e := range catalog.DefaultExercises() {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, domain.ErrExerciseNotFound
}
