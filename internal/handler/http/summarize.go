package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"text-digest/internal/handler/http/requestid"
	"text-digest/internal/handler/http/respond"
	"text-digest/internal/observability/logging"
	"text-digest/internal/usecase/pipeline"
)

// Summarizer runs a summarization request.
type Summarizer interface {
	Summarize(ctx context.Context, req pipeline.Request) (string, error)
}

// Cleaner normalizes a text.
type Cleaner interface {
	Clean(ctx context.Context, input string) (string, error)
}

// summarizeRequest is the body of POST /v1/summarize.
type summarizeRequest struct {
	InputValue string `json:"input_value"`
	Source     string `json:"source,omitempty"`
	Format     string `json:"format,omitempty"`
	Normalize  bool   `json:"normalize,omitempty"`
}

// normalizeRequest is the body of POST /v1/normalize.
type normalizeRequest struct {
	InputValue string `json:"input_value"`
}

// textResponse is the body of every successful /v1 response.
type textResponse struct {
	Text string `json:"text"`
}

// SummarizeHandler serves POST /v1/summarize.
type SummarizeHandler struct {
	Summarizer Summarizer
	// Timeout bounds one summarization. Zero means no bound beyond the request context.
	Timeout time.Duration
}

func (h *SummarizeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	var req summarizeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	summary, err := h.Summarizer.Summarize(ctx, pipeline.Request{
		InputValue: req.InputValue,
		Source:     req.Source,
		Format:     req.Format,
		Normalize:  req.Normalize,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, textResponse{Text: summary})
}

// NormalizeHandler serves POST /v1/normalize.
type NormalizeHandler struct {
	Cleaner Cleaner
}

func (h *NormalizeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req normalizeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	out, err := h.Cleaner.Clean(r.Context(), req.InputValue)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, textResponse{Text: out})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	logger := logging.FromContext(r.Context())
	if code < http.StatusInternalServerError {
		logger.Warn("request rejected",
			slog.Int("status", code),
			slog.Any("error", err))
	}
	respond.SafeError(w, logger, code, err, requestid.FromContext(r.Context()))
}
