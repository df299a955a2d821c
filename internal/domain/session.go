package domain

import (
	"time"

	"github.com/google/uuid"
)

// LogStatus tells how a breathing session ended.
type LogStatus string

const (
	LogCompleted LogStatus = "completed"
	LogAbandoned LogStatus = "abandoned"
)

// ExerciseLog is the record kept for every session that leaves a controller.
type ExerciseLog struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	ExerciseID      int64     `json:"exerciseId"`
	ExerciseName    string    `json:"exerciseName"`
	Status          LogStatus `json:"status"`
	CyclesCompleted int       `json:"cyclesCompleted"`
	StartedAt       time.Time `json:"startedAt"`
	EndedAt         time.Time `json:"endedAt"`
	PausedSeconds   int       `json:"pausedSeconds"`
}

// BreathingSeconds is the time spent in the session, pauses excluded.
func (l *ExerciseLog) BreathingSeconds() int {
	total := int(l.EndedAt.Sub(l.StartedAt).Seconds()) - l.PausedSeconds
	if total < 0 {
		return 0
	}
	return total
}

func NewExerciseLog(id string, userID string, e *Exercise, status LogStatus, startedAt, endedAt time.Time) *ExerciseLog {
	if id == "" {
		id = uuid.New().String()
	}

	return &ExerciseLog{
		ID:           id,
		UserID:       userID,
		ExerciseID:   e.ID,
		ExerciseName: e.Name,
		Status:       status,
		StartedAt:    startedAt,
		EndedAt:      endedAt,
	}
}
