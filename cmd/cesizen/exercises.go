package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var exercisesCmd = &cobra.Command{
	Use:   "exercises",
	Short: "List the available breathing exercises",
	RunE:  runExercises,
}

func runExercises(cmd *cobra.Command, args []string) error {
	repo, err := openRepository()
	if err != nil {
		return err
	}
	if repo != nil {
		defer repo.Close()
	}

	exercises, err := catalogProvider(repo).ListExercises(cmd.Context())
	if err != nil {
		return err
	}

	header := lipgloss.NewStyle().Bold(true)
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, header.Render(fmt.Sprintf("%-4s  %-24s  %-10s  %-7s  %s", "ID", "NAME", "I/A/E", "CYCLES", "DURATION")))
	for _, e := range exercises {
		pattern := fmt.Sprintf("%d/%d/%d", e.DurationInspiration, e.DurationApnea, e.DurationExpiration)
		fmt.Fprintf(out, "%-4d  %-24s  %-10s  %-7d  %s\n", e.ID, e.Name, pattern, e.NumberCycles, formatSeconds(e.TotalSeconds()))
	}
	return nil
}
