package generator

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"
)

// MetricsRecorder records per-call generator metrics.
// Tests inject a fake to assert what a Client reports.
type MetricsRecorder interface {
	// RecordRequest records one Generate call, retries included.
	RecordRequest(provider string, success bool, duration time.Duration)

	// RecordAttempt records one backend attempt.
	RecordAttempt(provider string)

	// RecordResponseLength records the length of a generated text in characters.
	RecordResponseLength(provider string, length int)

	// RecordCircuitState records the current breaker state.
	RecordCircuitState(provider string, state gobreaker.State)
}

// PrometheusMetrics implements MetricsRecorder using Prometheus metrics.
type PrometheusMetrics struct {
	requests       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	attempts       *prometheus.CounterVec
	responseLength *prometheus.HistogramVec
	circuitState   *prometheus.GaugeVec
}

var (
	prometheusMetricsInstance *PrometheusMetrics
	prometheusMetricsOnce     sync.Once
)

// getOrCreate registers c or returns the collector already registered under the same descriptor.
func getOrCreate[C prometheus.Collector](c C) C {
	if err := prometheus.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return c
}

// NewPrometheusMetrics returns the process wide Prometheus recorder.
// Uses singleton pattern to avoid duplicate metric registration in tests.
func NewPrometheusMetrics() *PrometheusMetrics {
	prometheusMetricsOnce.Do(func() {
		prometheusMetricsInstance = &PrometheusMetrics{
			requests: getOrCreate(prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "generator_requests_total",
				Help: "Total number of generation requests by provider and status",
			}, []string{"provider", "status"})),
			duration: getOrCreate(prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "generator_request_duration_seconds",
				Help:    "Time taken by a generation request including retries",
				Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
			}, []string{"provider"})),
			attempts: getOrCreate(prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "generator_attempts_total",
				Help: "Total number of backend attempts, retries included",
			}, []string{"provider"})),
			responseLength: getOrCreate(prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "generator_response_length_characters",
				Help:    "Distribution of generated text lengths in characters",
				Buckets: []float64{100, 300, 500, 1000, 2000, 3000, 5000},
			}, []string{"provider"})),
			circuitState: getOrCreate(prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "generator_circuit_state",
				Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
			}, []string{"provider"})),
		}
	})
	return prometheusMetricsInstance
}

// RecordRequest implements MetricsRecorder.RecordRequest
func (p *PrometheusMetrics) RecordRequest(provider string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	p.requests.WithLabelValues(provider, status).Inc()
	p.duration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordAttempt implements MetricsRecorder.RecordAttempt
func (p *PrometheusMetrics) RecordAttempt(provider string) {
	p.attempts.WithLabelValues(provider).Inc()
}

// RecordResponseLength implements MetricsRecorder.RecordResponseLength
func (p *PrometheusMetrics) RecordResponseLength(provider string, length int) {
	p.responseLength.WithLabelValues(provider).Observe(float64(length))
}

// RecordCircuitState implements MetricsRecorder.RecordCircuitState
func (p *PrometheusMetrics) RecordCircuitState(provider string, state gobreaker.State) {
	p.circuitState.WithLabelValues(provider).Set(float64(state))
}
