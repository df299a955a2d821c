package domain

import "errors"

var (
	ErrInvalidStart     = errors.New("invalid start")
	ErrNotRunning       = errors.New("session is not running")
	ErrNotPaused        = errors.New("session is not paused")
	ErrNotFinished      = errors.New("session is not finished")
	ErrNoSession        = errors.New("no session in progress")
	ErrExerciseNotFound = errors.New("exercise not found")
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionExists    = errors.New("session already exists")
)
