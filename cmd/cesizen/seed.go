package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/cesizen/cesizen/internal/catalog"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load exercises into the local database",
	Long: `Load exercises from a YAML file, or the built-in exercises when no
file is given, into the database named by --db.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "YAML file with a top-level exercises list")
}

func runSeed(cmd *cobra.Command, args []string) error {
	if dbPath == "" {
		return errors.New("--db is required")
	}

	exercises := catalog.DefaultExercises()
	if seedFile != "" {
		var err error
		if exercises, err = catalog.LoadSeedFile(seedFile); err != nil {
			return err
		}
	}

	repo, err := openRepository()
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := catalog.Seed(cmd.Context(), repo, exercises); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d exercises into %s\n", len(exercises), dbPath)
	return nil
}
