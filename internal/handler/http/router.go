// Package http exposes the normalizer and the summarizer over JSON HTTP
// endpoints, together with health, readiness and metrics routes.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"text-digest/internal/handler/http/auth"
	"text-digest/internal/handler/http/requestid"
	"text-digest/internal/observability/tracing"
	"text-digest/pkg/ratelimit"
)

// Routes served by NewRouter.
const (
	RouteSummarize = "/v1/summarize"
	RouteNormalize = "/v1/normalize"
	RouteHealth    = "/health"
	RouteReady     = "/ready"
	RouteLive      = "/live"
	RouteMetrics   = "/metrics"
)

// RouterConfig holds the dependencies of the HTTP surface.
type RouterConfig struct {
	Summarizer Summarizer
	Cleaner    Cleaner
	Generator  GeneratorStatus
	Logger     *slog.Logger

	// JWTSecret enables bearer auth on /v1 routes when non-empty.
	JWTSecret    string
	MaxBodyBytes int64
	// RateLimiter, when set, limits /v1 requests per client.
	RateLimiter *ratelimit.Limiter
	// SummarizeTimeout bounds one summarization request.
	SummarizeTimeout time.Duration
	Version          string
}

// NewRouter builds the handler tree with its middleware chain.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var api []func(http.Handler) http.Handler
	if cfg.JWTSecret != "" {
		api = append(api, auth.Middleware([]byte(cfg.JWTSecret)))
	}
	if cfg.RateLimiter != nil {
		api = append(api, RateLimit(cfg.RateLimiter))
	}
	if cfg.MaxBodyBytes > 0 {
		api = append(api, LimitRequest(cfg.MaxBodyBytes))
	}

	mux := http.NewServeMux()
	mux.Handle("POST "+RouteSummarize, Chain(&SummarizeHandler{
		Summarizer: cfg.Summarizer,
		Timeout:    cfg.SummarizeTimeout,
	}, api...))
	mux.Handle("POST "+RouteNormalize, Chain(&NormalizeHandler{Cleaner: cfg.Cleaner}, api...))
	mux.Handle("GET "+RouteHealth, &HealthHandler{Generator: cfg.Generator, Version: cfg.Version})
	mux.Handle("GET "+RouteReady, &ReadyHandler{Generator: cfg.Generator})
	mux.Handle("GET "+RouteLive, &LiveHandler{})
	mux.Handle("GET "+RouteMetrics, MetricsHandler())

	return Chain(mux,
		requestid.Middleware,
		Recover(logger),
		tracing.Middleware(func(r *http.Request) string { return routeLabel(r.URL.Path) }),
		Logging(logger),
		MetricsMiddleware,
	)
}
