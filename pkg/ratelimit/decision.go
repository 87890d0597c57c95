// Package ratelimit implements a sliding window request limiter keyed by
// client identity, with an in-memory store and Prometheus metrics.
package ratelimit

import (
	"fmt"
	"time"
)

// Decision is the outcome of one rate limit check.
type Decision struct {
	// Key identifies the client that was checked.
	Key string
	// Allowed reports whether the request may proceed.
	Allowed bool
	// Limit is the number of requests allowed per window.
	Limit int
	// Remaining is the number of requests left in the current window.
	Remaining int
	// ResetAt is when the oldest counted request leaves the window.
	ResetAt time.Time
	// RetryAfter is how long a denied client should wait.
	RetryAfter time.Duration
}

func (d *Decision) String() string {
	if d.Allowed {
		return fmt.Sprintf("Decision{Allowed: true, Key: %s, Remaining: %d/%d}", d.Key, d.Remaining, d.Limit)
	}
	return fmt.Sprintf("Decision{Allowed: false, Key: %s, Limit: %d, RetryAfter: %s}", d.Key, d.Limit, d.RetryAfter)
}

// ResetAtUnix returns ResetAt as Unix seconds.
func (d *Decision) ResetAtUnix() int64 {
	return d.ResetAt.Unix()
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds.
func (d *Decision) RetryAfterSeconds() int64 {
	if d.RetryAfter <= 0 {
		return 0
	}
	secs := int64(d.RetryAfter / time.Second)
	if d.RetryAfter%time.Second != 0 {
		secs++
	}
	return secs
}
