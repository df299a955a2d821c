package storage

import (
	"github.com/cesizen/cesizen/internal/domain"
)

type rowScanner interface {
	Scan(dest ...any) error
}

const exerciseColumns = `id, name, duration_inspiration, duration_apnea, duration_expiration, number_cycles`

const logColumns = `id, user_id, exercise_id, exercise_name, status, cycles_completed, paused_seconds, started_at, ended_at`

func scanExercise(row rowScanner) (*domain.Exercise, error) {
	var e domain.Exercise
	err := row.Scan(
		&e.ID,
		&e.Name,
		&e.DurationInspiration,
		&e.DurationApnea,
		&e.DurationExpiration,
		&e.NumberCycles,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func scanLog(row rowScanner) (*domain.ExerciseLog, error) {
	var l domain.ExerciseLog
	err := row.Scan(
		&l.ID,
		&l.UserID,
		&l.ExerciseID,
		&l.ExerciseName,
		&l.Status,
		&l.CyclesCompleted,
		&l.PausedSeconds,
		&l.StartedAt,
		&l.EndedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
