package http

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"text-digest/internal/handler/http/auth"
	"text-digest/internal/handler/http/requestid"
	"text-digest/internal/handler/http/respond"
	"text-digest/internal/observability/logging"
	"text-digest/pkg/ratelimit"
)

// RateLimit limits requests per client. Authenticated clients are keyed by
// token subject, anonymous ones by remote IP. A failing store lets the
// request through.
func RateLimit(limiter *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)
			decision, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logging.FromContext(r.Context()).Error("rate limiter failed, allowing request",
					slog.String("key", key),
					slog.Any("error", err))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAtUnix(), 10))

			if !decision.Allowed {
				logging.FromContext(r.Context()).Warn("rate limit exceeded",
					slog.String("decision", decision.String()))
				w.Header().Set("Retry-After", strconv.FormatInt(decision.RetryAfterSeconds(), 10))
				respond.Error(w, http.StatusTooManyRequests, "rate limit exceeded", requestid.FromContext(r.Context()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	if sub := auth.SubjectFromContext(r.Context()); sub != "" {
		return "user:" + sub
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
