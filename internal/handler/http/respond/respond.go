// Package respond provides utilities for sending HTTP responses in JSON format.
// It includes error handling with sanitization to prevent leaking sensitive information.
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// JSON writes a JSON response with the given status code and data.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			// Headers are already sent
			slog.Default().Error("failed to encode JSON response",
				slog.Int("status_code", code),
				slog.Any("error", err))
		}
	}
}

// Error writes msg as a JSON error response.
func Error(w http.ResponseWriter, code int, msg, requestID string) {
	JSON(w, code, ErrorBody{Error: msg, RequestID: requestID})
}

// SafeError writes err to the client for 4xx codes. For 5xx codes the client
// gets the generic status text and the sanitized error is logged instead.
func SafeError(w http.ResponseWriter, logger *slog.Logger, code int, err error, requestID string) {
	if err == nil {
		return
	}
	if code < http.StatusInternalServerError {
		Error(w, code, err.Error(), requestID)
		return
	}

	if logger == nil {
		logger = slog.Default()
	}
	logger.Error("request failed",
		slog.String("status", http.StatusText(code)),
		slog.Int("code", code),
		slog.String("error", SanitizeError(err)))
	Error(w, code, http.StatusText(code), requestID)
}
