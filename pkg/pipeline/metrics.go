package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for pipeline runs.
var (
	pipelineRecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "repo_stars_pipeline_records_total",
		Help: "Total enriched records by result kind",
	}, []string{"kind"})

	pipelineQuotaWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "repo_stars_pipeline_quota_wait_seconds",
		Help:    "Time fetch workers spent waiting for the quota reset",
		Buckets: []float64{1, 5, 30, 60, 300, 900, 3600},
	})

	pipelineRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "repo_stars_pipeline_run_duration_seconds",
		Help:    "Wall time of a pipeline run",
		Buckets: []float64{0.5, 1, 5, 15, 60, 300, 1800, 3600},
	})
)
