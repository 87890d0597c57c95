// Package circuitbreaker stops calling a dependency that keeps failing.
// It is a thin typed layer over github.com/sony/gobreaker that trips on a
// failure ratio rather than a run of consecutive failures.
package circuitbreaker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

var (
	// ErrOpenState is returned while the circuit is open.
	ErrOpenState = gobreaker.ErrOpenState
	// ErrTooManyRequests is returned when the half-open probe quota is used up.
	ErrTooManyRequests = gobreaker.ErrTooManyRequests
)

// Config holds the configuration for a circuit breaker.
type Config struct {
	// Name labels log lines and metrics.
	Name string
	// MaxRequests is the number of probe calls let through while half-open.
	MaxRequests uint32
	// Interval resets the closed-state counts. Zero never resets them.
	Interval time.Duration
	// Timeout is how long the circuit stays open before probing.
	Timeout time.Duration
	// FailureThreshold is the failure ratio, 0.6 meaning 60%, that opens the circuit.
	FailureThreshold float64
	// MinRequests is how many calls must be seen before the ratio is checked.
	MinRequests uint32

	// IsSuccessful classifies an error returned by the protected call.
	// Errors it accepts do not count as failures. Nil means DefaultIsSuccessful.
	IsSuccessful func(err error) bool
	// OnStateChange is called after every transition, in addition to the
	// warning that is always logged.
	OnStateChange func(name string, from, to gobreaker.State)
}

// DefaultConfig returns a default configuration for circuit breakers.
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// GeneratorConfig is DefaultConfig for a generation backend, with fewer
// half-open probes since each one is a billed call.
func GeneratorConfig(provider string) Config {
	cfg := DefaultConfig("generator-" + provider)
	cfg.MaxRequests = 2
	return cfg
}

// DefaultIsSuccessful treats caller cancellation as success so that
// abandoned requests do not trip the circuit.
func DefaultIsSuccessful(err error) bool {
	return err == nil || errors.Is(err, context.Canceled)
}

// Rejected reports whether err came from the breaker itself rather than
// from the protected call.
func Rejected(err error) bool {
	return errors.Is(err, ErrOpenState) || errors.Is(err, ErrTooManyRequests)
}

// CircuitBreaker guards calls to one dependency.
type CircuitBreaker struct {
	breaker *gobreaker.CircuitBreaker
	name    string
}

// New creates a circuit breaker from cfg.
func New(cfg Config) *CircuitBreaker {
	isSuccessful := cfg.IsSuccessful
	if isSuccessful == nil {
		isSuccessful = DefaultIsSuccessful
	}
	minRequests, threshold := cfg.MinRequests, cfg.FailureThreshold
	hook := cfg.OnStateChange

	return &CircuitBreaker{
		name: cfg.Name,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        cfg.Name,
			MaxRequests: cfg.MaxRequests,
			Interval:    cfg.Interval,
			Timeout:     cfg.Timeout,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.Requests >= minRequests &&
					float64(c.TotalFailures)/float64(c.Requests) >= threshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Warn("circuit breaker state changed",
					slog.String("circuit", name),
					slog.String("from", from.String()),
					slog.String("to", to.String()))
				if hook != nil {
					hook(name, from, to)
				}
			},
			IsSuccessful: isSuccessful,
		}),
	}
}

// Do runs fn through cb. While the circuit is open fn is not called and
// the error satisfies Rejected.
func Do[T any](cb *CircuitBreaker, fn func() (T, error)) (T, error) {
	out, err := cb.breaker.Execute(func() (any, error) {
		return fn()
	})
	v, _ := out.(T)
	return v, err
}

// State returns the current state of the circuit breaker.
func (cb *CircuitBreaker) State() gobreaker.State {
	return cb.breaker.State()
}

// Name returns the name of the circuit breaker.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// IsOpen reports whether calls are currently rejected outright.
func (cb *CircuitBreaker) IsOpen() bool {
	return cb.breaker.State() == gobreaker.StateOpen
}
