package generator

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter paces calls to one provider with a token bucket, so a wide
// map phase queues locally instead of tripping the provider's quota.
type RateLimiter struct {
	bucket *rate.Limiter
}

// NewRateLimiter allows requestsPerSecond sustained calls with bursts of up
// to burst. A non-positive rate disables pacing.
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &RateLimiter{bucket: rate.NewLimiter(limit, max(burst, 1))}
}

// Wait blocks until a call may proceed and reports how long it waited.
// It fails early when ctx would expire before a token frees up.
func (r *RateLimiter) Wait(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	err := r.bucket.Wait(ctx)
	return time.Since(start), err
}

// Limit returns the sustained rate.
func (r *RateLimiter) Limit() rate.Limit { return r.bucket.Limit() }

// Burst returns the bucket size.
func (r *RateLimiter) Burst() int { return r.bucket.Burst() }
