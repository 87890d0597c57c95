package generator

import (
	"context"
	"fmt"
	"log/slog"

	"text-digest/internal/config"
	"text-digest/internal/resilience/retry"
)

// New builds a Client for the provider selected in cfg.
// Callers must Close the returned client.
func New(ctx context.Context, cfg *config.GeneratorConfig) (*Client, error) {
	backend, err := newBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	retryCfg := retry.GeneratorConfig()
	retryCfg.MaxAttempts = cfg.MaxAttempts

	slog.Info("initialized generator",
		slog.String("provider", backend.Name()),
		slog.String("model", cfg.Model),
		slog.Int("max_tokens", cfg.MaxTokens),
		slog.Float64("requests_per_second", cfg.RequestsPerSecond))

	return NewClient(backend, Options{
		Timeout:           cfg.Timeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		Retry:             retryCfg,
	}), nil
}

func newBackend(ctx context.Context, cfg *config.GeneratorConfig) (Backend, error) {
	switch cfg.Provider {
	case config.ProviderClaude:
		return NewClaude(cfg.APIKey, cfg.Model, cfg.MaxTokens), nil
	case config.ProviderOpenAI:
		return NewOpenAI(cfg.APIKey, cfg.Model, cfg.MaxTokens, ""), nil
	case config.ProviderGemini:
		return NewGemini(ctx, cfg.APIKey, cfg.Model, cfg.MaxTokens)
	case config.ProviderOllama:
		return NewOllama(cfg.OllamaHost, cfg.Model, cfg.MaxTokens, nil)
	case config.ProviderEcho:
		return NewEcho(cfg.MaxTokens), nil
	default:
		return nil, fmt.Errorf("unsupported generator provider %q", cfg.Provider)
	}
}
