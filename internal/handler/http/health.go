package http

import (
	"net/http"
	"time"

	"text-digest/internal/handler/http/respond"
)

// GeneratorStatus reports the state of the text generation backend.
type GeneratorStatus interface {
	Provider() string
	// State returns the circuit breaker state: closed, half-open or open.
	State() string
}

// HealthResponse represents the JSON response for health check endpoints.
type HealthResponse struct {
	Status    string                 `json:"status"`    // "healthy", "degraded" or "unhealthy"
	Timestamp string                 `json:"timestamp"` // RFC 3339
	Checks    map[string]CheckStatus `json:"checks"`
	Version   string                 `json:"version"`
}

// CheckStatus represents the status of a single health check.
type CheckStatus struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// HealthHandler reports generator availability.
// An open circuit makes the service unhealthy; half-open is degraded.
type HealthHandler struct {
	Generator GeneratorStatus
	Version   string
}

// ServeHTTP returns 200 when the generator is usable, 503 otherwise.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	check := h.checkGenerator()

	statusCode := http.StatusOK
	if check.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respond.JSON(w, statusCode, HealthResponse{
		Status:    check.Status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    map[string]CheckStatus{"generator": check},
		Version:   h.Version,
	})
}

func (h *HealthHandler) checkGenerator() CheckStatus {
	if h.Generator == nil {
		return CheckStatus{Status: "unhealthy", Message: "not configured"}
	}

	details := map[string]any{
		"provider":        h.Generator.Provider(),
		"circuit_breaker": h.Generator.State(),
	}
	switch h.Generator.State() {
	case "open":
		return CheckStatus{Status: "unhealthy", Message: "circuit breaker open", Details: details}
	case "half-open":
		return CheckStatus{Status: "degraded", Message: "circuit breaker probing", Details: details}
	}
	return CheckStatus{Status: "healthy", Details: details}
}

// ReadyHandler handles Kubernetes readiness probe requests.
// The service is ready unless the generator circuit is open.
type ReadyHandler struct {
	Generator GeneratorStatus
}

// ServeHTTP returns 200 OK if ready, or 503 Service Unavailable.
func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	if h.Generator == nil {
		http.Error(w, "generator not configured", http.StatusServiceUnavailable)
		return
	}
	if h.Generator.State() == "open" {
		http.Error(w, "generator unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("ready"))
}

// LiveHandler handles Kubernetes liveness probe requests.
type LiveHandler struct{}

// ServeHTTP always returns 200 OK while the process can respond.
func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("alive"))
}
