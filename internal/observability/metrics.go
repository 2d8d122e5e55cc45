package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	activitiesStarted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timetrack",
		Subsystem: "activities",
		Name:      "started_total",
		Help:      "Activities started, partitioned by tracking context.",
	}, []string{"context"})
	activitiesStopped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timetrack",
		Subsystem: "activities",
		Name:      "stopped_total",
		Help:      "Activities stopped, partitioned by tracking context.",
	}, []string{"context"})
	activitiesDeleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "timetrack",
		Subsystem: "activities",
		Name:      "deleted_total",
		Help:      "Activities deleted by their owner.",
	})
	pomodoroTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timetrack",
		Subsystem: "pomodoro",
		Name:      "phase_transitions_total",
		Help:      "Pomodoro phase transitions, partitioned by the phase entered.",
	}, []string{"phase"})
)

func init() {
	prometheus.MustRegister(activitiesStarted, activitiesStopped, activitiesDeleted, pomodoroTransitions)
}

// RecordActivityStarted bumps the start counter for a tracking context.
func RecordActivityStarted(context string) {
	activitiesStarted.WithLabelValues(context).Inc()
}

// RecordActivityStopped bumps the stop counter for a tracking context.
func RecordActivityStopped(context string) {
	activitiesStopped.WithLabelValues(context).Inc()
}

// RecordActivityDeleted bumps the delete counter.
func RecordActivityDeleted() {
	activitiesDeleted.Inc()
}

// RecordPomodoroTransition bumps the transition counter for the phase entered.
func RecordPomodoroTransition(phase string) {
	pomodoroTransitions.WithLabelValues(phase).Inc()
}
