package wiki

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wikibuilder",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each article pipeline stage",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		},
		[]string{"stage", "status"},
	)

	pipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wikibuilder",
			Name:      "pipeline_runs_total",
			Help:      "Article pipeline runs by outcome kind",
		},
		[]string{"outcome"},
	)
)

func recordOutcome(err error) {
	outcome := "success"
	if err != nil {
		outcome = string(KindOf(err))
	}
	pipelineRuns.WithLabelValues(outcome).Inc()
}
