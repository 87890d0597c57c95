package ratelimit

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics receives limiter observations.
type Metrics interface {
	RecordDecision(allowed bool)
	RecordCheckDuration(d time.Duration)
	SetActiveKeys(n int)
	RecordEviction(n int)
}

// NoopMetrics discards observations.
type NoopMetrics struct{}

func (NoopMetrics) RecordDecision(bool) {}
func (NoopMetrics) RecordCheckDuration(time.Duration) {}
func (NoopMetrics) SetActiveKeys(int) {}
func (NoopMetrics) RecordEviction(int) {}

// PrometheusMetrics exports limiter observations.
type PrometheusMetrics struct {
	requestsTotal  *prometheus.CounterVec
	checkDuration  prometheus.Histogram
	activeKeys     prometheus.Gauge
	evictionsTotal prometheus.Counter
}

// NewPrometheusMetrics creates the limiter metrics and registers them with reg.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_rate_limit_requests_total",
				Help: "Rate limit decisions by status",
			},
			[]string{"status"},
		),
		checkDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "http_rate_limit_check_duration_seconds",
			Help:    "Duration of rate limit checks",
			Buckets: []float64{0.0005, 0.001, 0.002, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),
		activeKeys: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_rate_limit_active_keys",
			Help: "Number of clients currently tracked",
		}),
		evictionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "http_rate_limit_evictions_total",
			Help: "Clients evicted from the store to stay under the key limit",
		}),
	}
	reg.MustRegister(m.requestsTotal, m.checkDuration, m.activeKeys, m.evictionsTotal)
	return m
}

func (m *PrometheusMetrics) RecordDecision(allowed bool) {
	status := "allowed"
	if !allowed {
		status = "denied"
	}
	m.requestsTotal.WithLabelValues(status).Inc()
}

func (m *PrometheusMetrics) RecordCheckDuration(d time.Duration) {
	m.checkDuration.Observe(d.Seconds())
}

func (m *PrometheusMetrics) SetActiveKeys(n int) {
	m.activeKeys.Set(float64(n))
}

func (m *PrometheusMetrics) RecordEviction(n int) {
	m.evictionsTotal.Add(float64(n))
}
