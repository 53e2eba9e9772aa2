package api

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/open-xchange/appsuite-middleware-sub008/internal/models"
)

type loginMetrics struct {
	attempts *prometheus.CounterVec
}

var (
	loginMetricsOnce sync.Once
	loginMetricsInst *loginMetrics
)

func globalLoginMetrics() *loginMetrics {
	loginMetricsOnce.Do(func() {
		loginMetricsInst = &loginMetrics{
			attempts: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: "appsuite",
				Subsystem: "login",
				Name:      "attempts_total",
				Help:      "Login-family actions by action and result.",
			}, []string{"action", "result"}),
		}
	})
	return loginMetricsInst
}

func (m *loginMetrics) observe(action string, outcome models.LoginOutcome) {
	result := "failed"
	switch outcome.Kind {
	case models.OutcomeSuccess:
		result = "ok"
	case models.OutcomeRedirect:
		result = "redirect"
	}
	m.attempts.WithLabelValues(action, result).Inc()
}
