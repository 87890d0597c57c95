// Command api serves the normalizer and the map-reduce summarizer over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"text-digest/internal/bootstrap"
	"text-digest/internal/config"
	hhttp "text-digest/internal/handler/http"
	"text-digest/internal/observability/logging"
	envcfg "text-digest/pkg/config"
	"text-digest/pkg/ratelimit"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	logger := initLogger()

	serverCfg, err := config.LoadServerConfig()
	if err != nil {
		logger.Error("failed to load server configuration", slog.Any("error", err))
		os.Exit(1)
	}
	if !serverCfg.AuthEnabled() {
		logger.Warn("JWT_SECRET not set, /v1 routes are unauthenticated")
	}

	components, sumCfg := setupSummarizer(logger)
	defer func() {
		if err := components.Close(); err != nil {
			logger.Error("failed to close generator", slog.Any("error", err))
		}
	}()

	cleanupCtx, stopCleanup := context.WithCancel(context.Background())
	defer stopCleanup()
	limiter := setupRateLimiter(cleanupCtx, logger, serverCfg)

	version := getVersion()
	handler := hhttp.NewRouter(hhttp.RouterConfig{
		Summarizer:       components.Pipeline,
		Cleaner:          components.Pipeline,
		Generator:        components.Generator,
		Logger:           logger,
		JWTSecret:        serverCfg.JWTSecret,
		MaxBodyBytes:     serverCfg.MaxBodyBytes,
		RateLimiter:      limiter,
		SummarizeTimeout: sumCfg.Timeout,
		Version:          version,
	})

	runServer(logger, serverCfg, handler, version)
}

// initLogger initializes and returns a structured logger based on environment configuration.
func initLogger() *slog.Logger {
	logger := logging.NewLogger()
	slog.SetDefault(logger)
	return logger
}

func getVersion() string {
	return envcfg.GetEnvString("VERSION", "dev")
}

// setupSummarizer loads generator and summarizer configuration and wires the pipeline.
func setupSummarizer(logger *slog.Logger) (*bootstrap.Components, *config.SummarizerConfig) {
	genCfg, err := config.LoadGeneratorConfig()
	if err != nil {
		logger.Error("failed to load generator configuration", slog.Any("error", err))
		os.Exit(1)
	}
	sumCfg, err := config.LoadSummarizerConfig()
	if err != nil {
		logger.Error("failed to load summarizer configuration", slog.Any("error", err))
		os.Exit(1)
	}

	fetchCfg, err := config.LoadFetchConfig()
	if err != nil {
		logger.Error("failed to load fetch configuration", slog.Any("error", err))
		os.Exit(1)
	}

	components, err := bootstrap.Build(context.Background(), genCfg, sumCfg, fetchCfg)
	if err != nil {
		logger.Error("failed to initialize summarizer", slog.Any("error", err))
		os.Exit(1)
	}
	return components, sumCfg
}

// setupRateLimiter creates the per-client limiter for /v1 routes and starts
// its cleanup loop. It returns nil when rate limiting is disabled.
func setupRateLimiter(ctx context.Context, logger *slog.Logger, cfg *config.ServerConfig) *ratelimit.Limiter {
	if !cfg.RateLimitEnabled() {
		logger.Warn("RATE_LIMIT_REQUESTS is 0, /v1 routes are not rate limited")
		return nil
	}

	m := ratelimit.NewPrometheusMetrics(prometheus.DefaultRegisterer)
	store := ratelimit.NewMemoryStore(cfg.RateLimitMaxKeys)
	store.OnEvict = m.RecordEviction

	limiter, err := ratelimit.New(ratelimit.Config{
		Limit:  cfg.RateLimitRequests,
		Window: cfg.RateLimitWindow,
	}, store, ratelimit.WithMetrics(m))
	if err != nil {
		logger.Error("failed to create rate limiter", slog.Any("error", err))
		os.Exit(1)
	}

	go limiter.RunCleanup(ctx, cfg.RateLimitWindow)
	logger.Info("rate limiting enabled",
		slog.Int("requests", cfg.RateLimitRequests),
		slog.Duration("window", cfg.RateLimitWindow),
		slog.Int("max_keys", cfg.RateLimitMaxKeys))
	return limiter
}

// runServer starts the HTTP server and blocks until SIGINT or SIGTERM, then
// drains in-flight requests within the shutdown timeout.
func runServer(logger *slog.Logger, cfg *config.ServerConfig, handler http.Handler, version string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second, // Prevent Slowloris attacks
		ReadTimeout:       cfg.ReadTimeout,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info("server starting",
			slog.String("addr", cfg.Addr),
			slog.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	cancel()
	logger.Info("server stopped")
}
