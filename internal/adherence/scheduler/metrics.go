package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	taskMatch = "match"
	taskSweep = "sweep"
)

var (
	OccurrencesCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "medbs",
			Subsystem: "scheduler",
			Name:      "occurrences_created_total",
			Help:      "Dose occurrences created by the timing matcher",
		},
	)

	AlertsMarkedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "medbs",
			Subsystem: "scheduler",
			Name:      "alerts_marked_total",
			Help:      "Occurrences flagged as caregiver-alerted by the sweeper",
		},
	)

	// TickErrorsTotal counts aborted or panicking ticks.
	// Labels: task (match, sweep)
	TickErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medbs",
			Subsystem: "scheduler",
			Name:      "tick_errors_total",
			Help:      "Scheduler ticks that aborted on a store error or panic",
		},
		[]string{"task"},
	)
)
