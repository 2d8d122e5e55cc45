package service

import "log"

// Notifier signals a pomodoro phase transition to the user. Delivery is best
// effort: implementations must not fail the transition, so the interface has
// no error return.
type Notifier interface {
	PhaseChanged(userID, phase string)
}

// LogNotifier is the default Notifier; the web client plays its own chime, so
// the server just records the transition.
type LogNotifier struct{}

func (LogNotifier) PhaseChanged(userID, phase string) {
	log.Printf("pomodoro phase changed user=%s phase=%s", userID, phase)
}
