package domain

import "github.com/pkg/errors"

// Exercise is a breathing exercise definition as served by the catalog.
// Durations are whole seconds.
type Exercise struct {
	ID                  int64  `json:"id" yaml:"id"`
	Name                string `json:"name" yaml:"name"`
	DurationInspiration int    `json:"duration_inspiration" yaml:"duration_inspiration"`
	DurationApnea       int    `json:"duration_apnea" yaml:"duration_apnea"`
	DurationExpiration  int    `json:"duration_expiration" yaml:"duration_expiration"`
	NumberCycles        int    `json:"number_cycles" yaml:"number_cycles"`
}

// Validate reports whether the exercise can be started.
// A non-positive cycle count is accepted; the controller finishes at the
// first expiration in that case.
func (e *Exercise) Validate() error {
	if e == nil {
		return errors.Wrap(ErrInvalidStart, "no exercise selected")
	}
	if e.DurationInspiration < 0 || e.DurationApnea < 0 || e.DurationExpiration < 0 {
		return errors.Wrapf(ErrInvalidStart, "exercise %d has a negative duration", e.ID)
	}
	if e.CycleSeconds() == 0 {
		return errors.Wrapf(ErrInvalidStart, "exercise %d has no timed phase", e.ID)
	}
	return nil
}

// CycleSeconds is the length of one inspiration/apnea/expiration cycle.
func (e *Exercise) CycleSeconds() int {
	return e.DurationInspiration + e.DurationApnea + e.DurationExpiration
}

// TotalSeconds is the estimated length of the whole exercise, countdown excluded.
func (e *Exercise) TotalSeconds() int {
	if e.NumberCycles <= 0 {
		return 0
	}
	return e.CycleSeconds() * e.NumberCycles
}
