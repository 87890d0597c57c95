package http

import (
	"net/http"
	"strconv"
	"time"

	"text-digest/internal/observability/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// knownRoutes bounds the path label to registered routes.
var knownRoutes = map[string]struct{}{
	RouteSummarize: {},
	RouteNormalize: {},
	RouteHealth:    {},
	RouteReady:     {},
	RouteLive:      {},
	RouteMetrics:   {},
}

// routeLabel maps a request path to a bounded metric label.
func routeLabel(path string) string {
	if _, ok := knownRoutes[path]; ok {
		return path
	}
	return "other"
}

// MetricsMiddleware records HTTP request metrics including duration, size, and status codes.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		rec := newStatusRecorder(w)
		start := time.Now()
		next.ServeHTTP(rec, r)

		metrics.RecordHTTPRequest(r.Method, routeLabel(r.URL.Path), strconv.Itoa(rec.status),
			time.Since(start), int(max(r.ContentLength, 0)), rec.bytes)
	})
}

// MetricsHandler returns an HTTP handler for the Prometheus metrics endpoint.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
