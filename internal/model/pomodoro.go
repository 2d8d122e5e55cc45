package model

import "time"

const (
	PhaseWork       = "work"
	PhaseShortBreak = "short_break"
	PhaseLongBreak  = "long_break"

	StatusIdle    = "idle"
	StatusRunning = "running"
	StatusPaused  = "paused"
)

// PomodoroSettings is a value object fixed for the server's lifetime; user
// overrides are not persisted.
type PomodoroSettings struct {
	WorkMinutes       int
	ShortBreakMinutes int
	LongBreakMinutes  int
	LongBreakInterval int
}

func DefaultPomodoroSettings() PomodoroSettings {
	return PomodoroSettings{
		WorkMinutes:       25,
		ShortBreakMinutes: 5,
		LongBreakMinutes:  15,
		LongBreakInterval: 4,
	}
}

// DurationSeconds returns the full countdown for a phase.
func (s PomodoroSettings) DurationSeconds(phase string) int {
	switch phase {
	case PhaseShortBreak:
		return s.ShortBreakMinutes * 60
	case PhaseLongBreak:
		return s.LongBreakMinutes * 60
	default:
		return s.WorkMinutes * 60
	}
}

// PomodoroState is the persisted cycle position for one user. While running,
// the authoritative remaining time is RemainingSeconds minus the wall time
// elapsed since StartedAt; RemainingSeconds alone is only current while
// paused or idle.
type PomodoroState struct {
	UserID             string     `json:"userId"`
	Phase              string     `json:"phase"`
	Status             string     `json:"status"`
	RemainingSeconds   int        `json:"remainingSeconds"`
	CompletedWorkCount int        `json:"completedWorkCount"`
	StartedAt          *time.Time `json:"startedAt,omitempty"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}
