package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics track HTTP request patterns and performance
var (
	// HTTPRequestsTotal counts total HTTP requests by method, path, and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds.
	// Summarization requests are slow, so the buckets reach two minutes.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestSize measures HTTP request body size in bytes
	HTTPRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_size_bytes",
			Help:    "HTTP request size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// HTTPResponseSize measures HTTP response body size in bytes
	HTTPResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// HTTPRequestsInFlight tracks the number of requests being served
	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being served",
		},
	)
)

// Summarization metrics track the map-reduce controller
var (
	// SummarizationsTotal counts summarization runs by status
	SummarizationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "summarizations_total",
			Help: "Total number of map-reduce summarization runs",
		},
		[]string{"status"},
	)

	// SummarizationDuration measures the wall time of a whole run
	SummarizationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "summarization_duration_seconds",
			Help:    "Time taken to produce a final summary",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)

	// SummarizationInputSize measures input size in characters
	SummarizationInputSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "summarization_input_characters",
			Help:    "Combined character length of summarization input",
			Buckets: prometheus.ExponentialBuckets(256, 4, 8),
		},
	)

	// MapInputs measures how many documents or chunks a run maps
	MapInputs = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "summarization_map_inputs",
			Help:    "Number of documents or chunks processed by the map phase",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		},
	)

	// CollapseRounds measures how many collapse rounds a run needed
	CollapseRounds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "summarization_collapse_rounds",
			Help:    "Number of collapse rounds before the final combine",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 10},
		},
	)

	// PhaseCallsTotal counts generator invocations by phase and status
	PhaseCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "summarization_generator_calls_total",
			Help: "Total number of generator invocations per phase",
		},
		[]string{"phase", "status"},
	)

	// PhaseCallDuration measures generator latency per phase
	PhaseCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "summarization_generator_call_duration_seconds",
			Help:    "Generator invocation latency per phase",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"phase"},
	)

	// NormalizationsTotal counts normalizer invocations
	NormalizationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "normalizations_total",
			Help: "Total number of texts normalized",
		},
	)
)

// RecordHTTPRequest records an HTTP request with its metadata
func RecordHTTPRequest(method, path, status string, duration time.Duration, requestSize, responseSize int) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())

	if requestSize > 0 {
		HTTPRequestSize.WithLabelValues(method, path).Observe(float64(requestSize))
	}
	if responseSize > 0 {
		HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
	}
}
