package model

import "time"

// Tracking contexts. Each context holds at most one open activity, and the
// two contexts are independent: a user may have the generic tracker and a
// pomodoro work session open at the same time.
const (
	ContextTracker  = "tracker"
	ContextPomodoro = "pomodoro"
)

func IsValidContext(context string) bool {
	return context == ContextTracker || context == ContextPomodoro
}

// TrackingContext is the per-user, per-context slot holding the identifier
// of the currently running activity, if any.
type TrackingContext struct {
	UserID            string
	Context           string
	CurrentActivityID *string
	UpdatedAt         time.Time
}
