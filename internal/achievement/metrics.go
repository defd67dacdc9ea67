package achievement

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UnlocksTotal counts newly created unlocks by achievement code.
	UnlocksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "questgo_achievement_unlocks_total",
			Help: "Total number of achievements unlocked",
		},
		[]string{"code"},
	)

	// EvaluationFailuresTotal counts swallowed storage failures during evaluation by stage.
	EvaluationFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "questgo_achievement_evaluation_failures_total",
			Help: "Total number of storage failures ignored while evaluating achievements",
		},
		[]string{"stage"},
	)
)

func recordUnlock(code string) {
	UnlocksTotal.WithLabelValues(code).Inc()
}

func recordFailure(stage string) {
	EvaluationFailuresTotal.WithLabelValues(stage).Inc()
}
