package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"text-digest/internal/domain/entity"
	"text-digest/internal/usecase/pipeline"
	"text-digest/internal/usecase/summarize"
)

var (
	errInvalidJSON  = errors.New("invalid JSON body")
	errBodyTooLarge = errors.New("request body too large")
)

// statusFor maps use case errors to HTTP status codes. Deadline and
// cancellation are checked first because generation errors may wrap them.
func statusFor(err error) int {
	var genErr *summarize.GenerationError
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	case errors.Is(err, errBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errInvalidJSON), errors.Is(err, entity.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, summarize.ErrBudgetUnsatisfiable):
		return http.StatusUnprocessableEntity
	case errors.As(err, &genErr), errors.Is(err, pipeline.ErrFetchFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errBodyTooLarge
		}
		if errors.Is(err, io.EOF) {
			return errInvalidJSON
		}
		return errors.Join(errInvalidJSON, err)
	}
	return nil
}
