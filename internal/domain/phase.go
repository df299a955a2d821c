package domain

// Phase is one step of a breathing cycle.
type Phase string

const (
	PhaseInspiration Phase = "inspiration"
	PhaseApnea       Phase = "apnea"
	PhaseExpiration  Phase = "expiration"
)

// Stage is the lifecycle stage of a breathing session.
type Stage string

const (
	StageIdle      Stage = "idle"
	StageCountdown Stage = "countdown"
	StageActive    Stage = "active"
	StageFinished  Stage = "finished"
)

// CountdownLabel is shown while the 3-2-1 countdown runs.
const CountdownLabel = "Préparation"

// Label is the instruction displayed to the user during the phase.
func (p Phase) Label() string {
	switch p {
	case PhaseInspiration:
		return "Inspirez"
	case PhaseApnea:
		return "Bloquez votre respiration"
	case PhaseExpiration:
		return "Expirez"
	default:
		return ""
	}
}

// Next returns the phase that follows p within a cycle, ignoring durations.
// The boolean is false when p ends the cycle.
func (p Phase) Next() (Phase, bool) {
	switch p {
	case PhaseInspiration:
		return PhaseApnea, true
	case PhaseApnea:
		return PhaseExpiration, true
	default:
		return PhaseInspiration, false
	}
}

// DurationFor returns the configured length of phase in seconds.
func DurationFor(e *Exercise, phase Phase) int {
	if e == nil {
		return 0
	}
	switch phase {
	case PhaseInspiration:
		return e.DurationInspiration
	case PhaseApnea:
		return e.DurationApnea
	case PhaseExpiration:
		return e.DurationExpiration
	default:
		return 0
	}
}

// FillRatio is the progress-ring fill for a phase: rising from 0 to 1 on
// inspiration, falling from 1 to 0 on expiration and held full on apnea.
func FillRatio(phase Phase, remaining, duration int) float64 {
	if phase == PhaseApnea {
		return 1
	}
	if duration <= 0 {
		return 0
	}

	elapsed := float64(duration-remaining) / float64(duration)
	switch {
	case elapsed < 0:
		elapsed = 0
	case elapsed > 1:
		elapsed = 1
	}

	if phase == PhaseExpiration {
		return 1 - elapsed
	}
	return elapsed
}
