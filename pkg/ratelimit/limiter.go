package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrInvalidConfig indicates a non-positive limit or window.
var ErrInvalidConfig = errors.New("invalid rate limit configuration")

// Clock abstracts time for tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns time.Now.
func (SystemClock) Now() time.Time { return time.Now() }

// Config holds limiter settings.
type Config struct {
	// Limit is the number of requests allowed per Window.
	Limit int
	// Window is the length of the sliding window.
	Window time.Duration
}

// Limiter enforces Config.Limit requests per sliding Config.Window per key.
type Limiter struct {
	cfg     Config
	store   Store
	clock   Clock
	metrics Metrics

	mu   sync.Mutex
	last time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(l *Limiter) { l.clock = c }
}

// WithMetrics records decisions to m.
func WithMetrics(m Metrics) Option {
	return func(l *Limiter) { l.metrics = m }
}

// New creates a Limiter backed by store.
func New(cfg Config, store Store, opts ...Option) (*Limiter, error) {
	if cfg.Limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidConfig, cfg.Limit)
	}
	if cfg.Window <= 0 {
		return nil, fmt.Errorf("%w: window must be positive, got %v", ErrInvalidConfig, cfg.Window)
	}
	l := &Limiter{
		cfg:     cfg,
		store:   store,
		clock:   SystemClock{},
		metrics: NoopMetrics{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Limit returns the configured requests per window.
func (l *Limiter) Limit() int { return l.cfg.Limit }

// Allow checks key and records the request when it is allowed.
func (l *Limiter) Allow(ctx context.Context, key string) (*Decision, error) {
	start := time.Now()
	now := l.now()
	allowed, count, oldest, err := l.store.CheckAndAdd(ctx, key, now, now.Add(-l.cfg.Window), l.cfg.Limit)
	l.metrics.RecordCheckDuration(time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("rate limit check for %s: %w", key, err)
	}

	resetAt := oldest.Add(l.cfg.Window)
	d := &Decision{
		Key:       key,
		Allowed:   allowed,
		Limit:     l.cfg.Limit,
		Remaining: max(l.cfg.Limit-count, 0),
		ResetAt:   resetAt,
	}
	if !allowed {
		d.RetryAfter = resetAt.Sub(now)
	}
	l.metrics.RecordDecision(allowed)
	return d, nil
}

// Cleanup forgets requests that have left the window.
func (l *Limiter) Cleanup(ctx context.Context) error {
	removed, err := l.store.Cleanup(ctx, l.now().Add(-l.cfg.Window))
	if err != nil {
		return err
	}
	if n, err := l.store.KeyCount(ctx); err == nil {
		l.metrics.SetActiveKeys(n)
	}
	if removed > 0 {
		slog.Debug("rate limit keys expired", slog.Int("removed", removed))
	}
	return nil
}

// RunCleanup calls Cleanup every interval until ctx is done.
func (l *Limiter) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := l.Cleanup(ctx); err != nil {
				slog.Warn("rate limit cleanup failed", slog.Any("error", err))
			}
		}
	}
}

// now never goes backwards so stored timestamps stay ordered.
func (l *Limiter) now() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	t := l.clock.Now()
	if t.Before(l.last) {
		slog.Warn("clock skew detected, using last valid timestamp",
			slog.Time("now", t),
			slog.Time("last", l.last))
		return l.last
	}
	l.last = t
	return t
}
