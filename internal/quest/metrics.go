package quest

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GenerationAttemptsTotal counts backend attempts by outcome (success, unavailable, malformed, error).
	GenerationAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "questgo_generation_attempts_total",
			Help: "Total number of quest generation backend attempts",
		},
		[]string{"outcome"},
	)

	// GenerationsTotal counts returned quests by source (backend, fallback).
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "questgo_generations_total",
			Help: "Total number of generated quests by source",
		},
		[]string{"source"},
	)

	// GenerationDuration tracks end-to-end generation latency.
	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "questgo_generation_duration_seconds",
			Help:    "Duration of quest generation in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10, 20, 30},
		},
		[]string{"source"},
	)

	// BreakerState reports the generation circuit state (0 closed, 1 half-open, 2 open).
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "questgo_generation_circuit_state",
			Help: "State of the generation circuit breaker",
		},
		[]string{"name"},
	)

	// QuestsCompletedTotal counts completed assignments.
	QuestsCompletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "questgo_quests_completed_total",
			Help: "Total number of completed quests",
		},
	)
)

func recordAttempt(outcome string) {
	GenerationAttemptsTotal.WithLabelValues(outcome).Inc()
}

func recordGeneration(source Source, elapsed time.Duration) {
	GenerationsTotal.WithLabelValues(string(source)).Inc()
	GenerationDuration.WithLabelValues(string(source)).Observe(elapsed.Seconds())
}
