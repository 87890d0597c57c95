package generator

import (
	"errors"
	"net/http"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/ollama/ollama/api"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/api/googleapi"

	"text-digest/internal/resilience/retry"
)

// classify maps provider SDK errors onto retry.HTTPError so that retry
// decisions depend on status codes only. Unknown errors pass through.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var (
		anthropicErr *anthropic.Error
		openaiErr    *openai.APIError
		requestErr   *openai.RequestError
		googleErr    *googleapi.Error
		ollamaErr    api.StatusError
	)
	switch {
	case errors.As(err, &anthropicErr):
		var header http.Header
		if anthropicErr.Response != nil {
			header = anthropicErr.Response.Header
		}
		return &retry.HTTPError{
			StatusCode: anthropicErr.StatusCode,
			Message:    statusMessage(anthropicErr.StatusCode),
			RetryAfter: retryAfter(header),
			Err:        err,
		}
	case errors.As(err, &openaiErr):
		return &retry.HTTPError{StatusCode: openaiErr.HTTPStatusCode, Message: openaiErr.Message, Err: err}
	case errors.As(err, &requestErr):
		return &retry.HTTPError{StatusCode: requestErr.HTTPStatusCode, Message: statusMessage(requestErr.HTTPStatusCode), Err: err}
	case errors.As(err, &googleErr):
		return &retry.HTTPError{StatusCode: googleErr.Code, Message: googleErr.Message, RetryAfter: retryAfter(googleErr.Header), Err: err}
	case errors.As(err, &ollamaErr):
		return &retry.HTTPError{StatusCode: ollamaErr.StatusCode, Message: ollamaErr.ErrorMessage, Err: err}
	}
	return err
}

func statusMessage(code int) string {
	if msg := http.StatusText(code); msg != "" {
		return msg
	}
	return "unexpected status"
}

func retryAfter(h http.Header) time.Duration {
	if h == nil {
		return 0
	}
	return retry.ParseRetryAfter(h.Get("Retry-After"), time.Now())
}
