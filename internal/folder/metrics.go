package folder

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type aggregationMetrics struct {
	runs      prometheus.Counter
	accounts  *prometheus.CounterVec
	durations prometheus.Observer
}

var (
	aggregationMetricsOnce sync.Once
	aggregationMetricsInst *aggregationMetrics
)

func globalAggregationMetrics() *aggregationMetrics {
	aggregationMetricsOnce.Do(func() {
		aggregationMetricsInst = newAggregationMetrics()
	})
	return aggregationMetricsInst
}

func newAggregationMetrics() *aggregationMetrics {
	return &aggregationMetrics{
		runs: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "appsuite",
			Subsystem: "folder",
			Name:      "aggregation_runs_total",
			Help:      "Total root-folder aggregation executions",
		}),
		accounts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "appsuite",
			Subsystem: "folder",
			Name:      "aggregation_accounts_total",
			Help:      "Accounts processed by the aggregation, labeled by result",
		}, []string{"status"}),
		durations: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "appsuite",
			Subsystem: "folder",
			Name:      "aggregation_duration_seconds",
			Help:      "Duration of root-folder aggregation executions",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}
