package scheduler

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type schedulerMetrics struct {
	runs      prometheus.Counter
	removed   prometheus.Counter
	durations prometheus.Histogram
}

var (
	schedulerMetricsOnce sync.Once
	schedulerMetricsInst *schedulerMetrics
)

func globalSchedulerMetrics() *schedulerMetrics {
	schedulerMetricsOnce.Do(func() {
		schedulerMetricsInst = &schedulerMetrics{
			runs: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: "appsuite",
				Subsystem: "scheduler",
				Name:      "cleanup_runs_total",
				Help:      "Session cleanup executions.",
			}),
			removed: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: "appsuite",
				Subsystem: "scheduler",
				Name:      "sessions_removed_total",
				Help:      "Sessions removed by the cleanup job.",
			}),
			durations: promauto.NewHistogram(prometheus.HistogramOpts{
				Namespace: "appsuite",
				Subsystem: "scheduler",
				Name:      "cleanup_duration_seconds",
				Help:      "Duration of session cleanup runs.",
				Buckets:   prometheus.DefBuckets,
			}),
		}
	})
	return schedulerMetricsInst
}
