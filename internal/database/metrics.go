package database

import (
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
)

// poolStatsCollector exposes the connection pool counters of the live
// database handle. Collected on scrape, so no background goroutine is
// needed.
type poolStatsCollector struct {
	db *sqlx.DB

	open     *prometheus.Desc
	inUse    *prometheus.Desc
	idle     *prometheus.Desc
	waits    *prometheus.Desc
	waitTime *prometheus.Desc
}

var registerPoolOnce sync.Once

// RegisterPoolMetrics registers the pool collector for the given handle.
// Safe to call more than once; only the first handle wins.
func RegisterPoolMetrics(db *sqlx.DB) {
	registerPoolOnce.Do(func() {
		prometheus.MustRegister(newPoolStatsCollector(db))
	})
}

func newPoolStatsCollector(db *sqlx.DB) *poolStatsCollector {
	ns := "appsuite_db_pool"
	return &poolStatsCollector{
		db:       db,
		open:     prometheus.NewDesc(ns+"_open_connections", "Open connections, in use plus idle.", nil, nil),
		inUse:    prometheus.NewDesc(ns+"_in_use_connections", "Connections currently in use.", nil, nil),
		idle:     prometheus.NewDesc(ns+"_idle_connections", "Idle connections.", nil, nil),
		waits:    prometheus.NewDesc(ns+"_wait_count_total", "Connections waited for.", nil, nil),
		waitTime: prometheus.NewDesc(ns+"_wait_seconds_total", "Total time blocked waiting for a connection.", nil, nil),
	}
}

func (c *poolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.open
	ch <- c.inUse
	ch <- c.idle
	ch <- c.waits
	ch <- c.waitTime
}

func (c *poolStatsCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.db.Stats()
	ch <- prometheus.MustNewConstMetric(c.open, prometheus.GaugeValue, float64(stats.OpenConnections))
	ch <- prometheus.MustNewConstMetric(c.inUse, prometheus.GaugeValue, float64(stats.InUse))
	ch <- prometheus.MustNewConstMetric(c.idle, prometheus.GaugeValue, float64(stats.Idle))
	ch <- prometheus.MustNewConstMetric(c.waits, prometheus.CounterValue, float64(stats.WaitCount))
	ch <- prometheus.MustNewConstMetric(c.waitTime, prometheus.CounterValue, stats.WaitDuration.Seconds())
}
