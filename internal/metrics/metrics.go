package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Breathing session metrics
var (
	// SessionsStarted counts sessions handed to a controller
	SessionsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cesizen_breathing_sessions_started_total",
			Help: "Total breathing sessions started",
		},
	)

	// SessionsEnded counts sessions leaving a controller by outcome (completed/abandoned)
	SessionsEnded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cesizen_breathing_sessions_ended_total",
			Help: "Total breathing sessions ended by outcome",
		},
		[]string{"status"},
	)

	// ActiveSessions tracks sessions currently held by the manager
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cesizen_breathing_sessions_active",
			Help: "Number of breathing sessions held in memory",
		},
	)

	// TicksIgnored counts ticks delivered by a timer that was already released
	TicksIgnored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cesizen_breathing_ticks_ignored_total",
			Help: "Ticks dropped because their timer had been cancelled",
		},
	)

	// RecordErrors counts failures to persist an exercise log
	RecordErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cesizen_exercise_log_errors_total",
			Help: "Failures writing exercise logs",
		},
	)
)

// Catalog metrics
var (
	// CatalogLoads counts catalog loads by result
	CatalogLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cesizen_catalog_loads_total",
			Help: "Exercise catalog loads by result",
		},
		[]string{"result"},
	)

	// CatalogExercises is the number of exercises in the loaded catalog
	CatalogExercises = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cesizen_catalog_exercises",
			Help: "Exercises currently available in the catalog",
		},
	)
)
