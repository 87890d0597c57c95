package generator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"text-digest/internal/observability/logging"
	"text-digest/internal/resilience/circuitbreaker"
	"text-digest/internal/resilience/retry"
	"text-digest/internal/utils/text"
)

// Options tune the reliability wrapper around a Backend.
type Options struct {
	// Timeout bounds one Generate call, retries included. Zero means no extra bound.
	Timeout time.Duration

	// RequestsPerSecond and Burst configure the rate limiter. A non-positive
	// rate disables limiting.
	RequestsPerSecond float64
	Burst             int

	// Retry configures attempts and backoff. Zero value means retry.GeneratorConfig.
	Retry retry.Config

	// Breaker configures the circuit breaker. Zero value means circuitbreaker.GeneratorConfig.
	Breaker circuitbreaker.Config

	// Metrics records per-call metrics. Nil means the Prometheus recorder.
	Metrics MetricsRecorder
}

// Client implements the summarizer's Generator on top of a Backend.
// It includes rate limiting, retry and circuit breaker logic
// with structured logging and metrics for every call.
type Client struct {
	backend Backend
	limiter *RateLimiter
	breaker *circuitbreaker.CircuitBreaker
	retry   retry.Config
	timeout time.Duration
	metrics MetricsRecorder
}

// NewClient wraps backend with the reliability stack described by opts.
func NewClient(backend Backend, opts Options) *Client {
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = retry.GeneratorConfig()
	}
	if opts.Breaker.Name == "" {
		opts.Breaker = circuitbreaker.GeneratorConfig(backend.Name())
	}
	if opts.Metrics == nil {
		opts.Metrics = NewPrometheusMetrics()
	}

	provider := backend.Name()
	metrics := opts.Metrics
	next := opts.Breaker.OnStateChange
	opts.Breaker.OnStateChange = func(name string, from, to gobreaker.State) {
		metrics.RecordCircuitState(provider, to)
		if next != nil {
			next(name, from, to)
		}
	}

	c := &Client{
		backend: backend,
		limiter: NewRateLimiter(opts.RequestsPerSecond, opts.Burst),
		breaker: circuitbreaker.New(opts.Breaker),
		retry:   opts.Retry,
		timeout: opts.Timeout,
		metrics: opts.Metrics,
	}
	c.metrics.RecordCircuitState(provider, c.breaker.State())
	return c
}

// Generate sends prompt to the backend and returns the generated text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	provider := c.backend.Name()
	logger := logging.FromContext(ctx).With(
		slog.String("provider", provider),
		slog.String("call_id", uuid.NewString()))

	logger.DebugContext(ctx, "generation started",
		slog.Int("prompt_length", text.CountRunes(prompt)))

	start := time.Now()
	out, err := retry.Do(ctx, c.retry, func() (string, error) {
		waited, err := c.limiter.Wait(ctx)
		if err != nil {
			return "", fmt.Errorf("rate limit wait: %w", err)
		}
		if waited > time.Millisecond {
			logger.DebugContext(ctx, "generation throttled", slog.Duration("waited", waited))
		}
		c.metrics.RecordAttempt(provider)
		out, err := circuitbreaker.Do(c.breaker, func() (string, error) {
			return c.backend.Complete(ctx, prompt)
		})
		if circuitbreaker.Rejected(err) {
			logger.WarnContext(ctx, "generator circuit breaker open, request rejected",
				slog.String("circuit", c.breaker.Name()),
				slog.String("state", c.breaker.State().String()))
			return "", fmt.Errorf("%w: %s circuit breaker open", ErrUnavailable, provider)
		}
		return out, err
	})
	duration := time.Since(start)

	c.metrics.RecordRequest(provider, err == nil, duration)

	if err != nil {
		logger.ErrorContext(ctx, "generation failed",
			slog.Duration("duration", duration),
			slog.Any("error", err))
		return "", fmt.Errorf("%s generate failed: %w", provider, err)
	}

	length := text.CountRunes(out)
	c.metrics.RecordResponseLength(provider, length)
	logger.DebugContext(ctx, "generation completed",
		slog.Int("response_length", length),
		slog.Duration("duration", duration))
	return out, nil
}

// Provider returns the backend name.
func (c *Client) Provider() string {
	return c.backend.Name()
}

// State returns the circuit breaker state, e.g. "closed" or "open".
func (c *Client) State() string {
	return c.breaker.State().String()
}

// Close releases backend resources when the backend holds any.
func (c *Client) Close() error {
	if closer, ok := c.backend.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
