// Package pipeline composes input preparation and summarization into the
// operations exposed to callers: clean a text, or summarize it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"text-digest/internal/domain/entity"
	"text-digest/internal/observability/logging"
	"text-digest/internal/observability/metrics"
)

// Input formats accepted by Request.Format.
const (
	FormatText = "text"
	FormatHTML = "html"
	// FormatURL treats InputValue as an http(s) address to download.
	FormatURL = "url"
)

var (
	// ErrInputRequired indicates an empty or whitespace-only input value.
	ErrInputRequired = fmt.Errorf("%w: input_value is required", entity.ErrInvalidInput)

	// ErrFetchFailed indicates that url input could not be retrieved.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrUnsupportedFormat indicates an unknown Request.Format, or url input
	// when no fetcher is configured.
	ErrUnsupportedFormat = fmt.Errorf("%w: unsupported input format", entity.ErrInvalidInput)
)

// TextTransform is a pure string-to-string preparation step.
type TextTransform interface {
	Transform(s string) string
}

// TextTransformFunc adapts a function to TextTransform.
type TextTransformFunc func(s string) string

// Transform calls f.
func (f TextTransformFunc) Transform(s string) string { return f(s) }

// Fetcher downloads a page and returns its readable text.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

// OrchestratedSummarizer produces one final summary for a document.
type OrchestratedSummarizer interface {
	Summarize(ctx context.Context, doc entity.Document) (string, error)
}

// Request is a caller's summarization request.
type Request struct {
	InputValue string
	// Source labels the document. Empty means the URL for url input and
	// entity.DefaultSource otherwise.
	Source string
	// Format is FormatText (default), FormatHTML or FormatURL.
	Format string
	// Normalize runs the normalizer before summarizing.
	Normalize bool
}

// Pipeline wires the preparation steps in front of a summarizer.
type Pipeline struct {
	summarizer OrchestratedSummarizer
	normalizer TextTransform
	extractor  TextTransform
	fetcher    Fetcher
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithFetcher enables FormatURL input.
func WithFetcher(f Fetcher) Option {
	return func(p *Pipeline) {
		p.fetcher = f
	}
}

// New creates a Pipeline. extractor may be nil, in which case HTML input is
// rejected with ErrUnsupportedFormat.
func New(summarizer OrchestratedSummarizer, normalizer, extractor TextTransform, opts ...Option) *Pipeline {
	p := &Pipeline{
		summarizer: summarizer,
		normalizer: normalizer,
		extractor:  extractor,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Clean normalizes input and returns the canonical form.
func (p *Pipeline) Clean(ctx context.Context, input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", ErrInputRequired
	}
	out := p.normalizer.Transform(input)
	metrics.RecordNormalization()

	logging.FromContext(ctx).Debug("text normalized",
		slog.Int("input_bytes", len(input)),
		slog.Int("output_bytes", len(out)))
	return out, nil
}

// Prepare applies the input transforms selected by req and returns the text
// that would be summarized.
func (p *Pipeline) Prepare(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.InputValue) == "" {
		return "", ErrInputRequired
	}

	content := req.InputValue
	switch strings.ToLower(req.Format) {
	case "", FormatText:
	case FormatHTML:
		if p.extractor == nil {
			return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, req.Format)
		}
		content = p.extractor.Transform(content)
	case FormatURL:
		if p.fetcher == nil {
			return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, req.Format)
		}
		fetched, err := p.fetcher.Fetch(ctx, strings.TrimSpace(content))
		if err != nil {
			return "", err
		}
		content = fetched
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, req.Format)
	}

	if req.Normalize {
		return p.Clean(ctx, content)
	}
	return content, nil
}

// Summarize prepares req and returns the final summary.
func (p *Pipeline) Summarize(ctx context.Context, req Request) (string, error) {
	content, err := p.Prepare(ctx, req)
	if err != nil {
		return "", err
	}

	source := req.Source
	if source == "" && strings.EqualFold(req.Format, FormatURL) {
		source = strings.TrimSpace(req.InputValue)
	}
	doc, err := entity.NewDocument(content, source)
	if err != nil {
		return "", fmt.Errorf("prepared input: %w", err)
	}
	return p.summarizer.Summarize(ctx, doc)
}
