// Package generator provides text generation backends for the summarizer.
// It includes adapters for Claude, OpenAI, Gemini and Ollama plus an offline
// echo backend, all wrapped by a Client that adds rate limiting, retries,
// a circuit breaker and observability.
package generator

import (
	"context"
	"errors"
)

var (
	// ErrEmptyResponse is returned when a provider answers without any text.
	ErrEmptyResponse = errors.New("generator returned empty response")

	// ErrUnavailable is returned while the provider circuit is open.
	ErrUnavailable = errors.New("generator unavailable")
)

// Backend performs a single completion against one provider.
// Implementations do not retry; the Client does.
type Backend interface {
	// Name returns the provider name used in logs and metrics.
	Name() string

	// Complete sends prompt and returns the generated text.
	Complete(ctx context.Context, prompt string) (string, error)
}
