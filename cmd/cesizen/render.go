package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cesizen/cesizen/internal/domain"
	"github.com/cesizen/cesizen/internal/runner"
)

const barWidth = 30

var (
	inspirationStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#1E40AF"))
	apneaStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#6B21A8"))
	expirationStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#166534"))
	countdownStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#1F2937"))
	dimStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

func phaseStyle(p domain.Phase) lipgloss.Style {
	switch p {
	case domain.PhaseInspiration:
		return inspirationStyle
	case domain.PhaseApnea:
		return apneaStyle
	case domain.PhaseExpiration:
		return expirationStyle
	default:
		return countdownStyle
	}
}

// fillBar draws ratio (0..1) as a fixed width ASCII bar.
func fillBar(ratio float64, width int) string {
	ratio = math.Max(0, math.Min(1, ratio))
	filled := int(math.Round(ratio * float64(width)))
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

// renderSnapshot is the single status line shown for a snapshot.
func renderSnapshot(s runner.Snapshot) string {
	switch s.Stage {
	case domain.StageCountdown:
		return countdownStyle.Render(fmt.Sprintf("%s… %d", domain.CountdownLabel, s.Countdown))

	case domain.StageActive:
		style := phaseStyle(s.Phase)
		line := fmt.Sprintf("%s %s %s  %s",
			style.Render(fmt.Sprintf("%-12s", s.Label)),
			style.Render(fmt.Sprintf("%2ds", s.TimeRemaining)),
			style.Render(fillBar(s.Fill, barWidth)),
			dimStyle.Render(fmt.Sprintf("cycle %d/%d", s.Cycle, s.TotalCycles)),
		)
		if s.Paused() {
			line += " " + dimStyle.Render("(pause)")
		}
		return line

	case domain.StageFinished:
		return expirationStyle.Render(fmt.Sprintf("Exercice terminé ! %d cycle(s) réalisé(s).", s.CyclesCompleted))

	default:
		return ""
	}
}

func formatSeconds(total int) string {
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
