// Package config loads and validates the per-feature configuration of the
// summarization server and CLI from environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	envcfg "text-digest/pkg/config"
)

// Supported GENERATOR_PROVIDER values.
const (
	ProviderClaude = "claude"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
	ProviderEcho   = "echo"
)

// defaultModels maps each provider to the model used when GENERATOR_MODEL is unset.
var defaultModels = map[string]string{
	ProviderClaude: "claude-sonnet-4-5-20250929",
	ProviderOpenAI: "gpt-4o-mini",
	ProviderGemini: "gemini-1.5-flash",
	ProviderOllama: "llama3.1",
	ProviderEcho:   "echo",
}

// GeneratorConfig holds configuration for the text generation backend.
type GeneratorConfig struct {
	// Provider selects the backend. Default: claude
	Provider string

	// Model is the provider specific model name. Default depends on Provider.
	Model string

	// MaxTokens bounds the length of each generated response. Default: 1024
	MaxTokens int

	// Timeout bounds a single generation call, retries included. Default: 60s
	Timeout time.Duration

	// RequestsPerSecond and Burst configure the client-side rate limiter.
	// Defaults: 2 requests per second, burst 4
	RequestsPerSecond float64
	Burst             int

	// MaxAttempts is the number of attempts for transient failures. Default: 3
	MaxAttempts int

	// APIKey authenticates against hosted providers.
	// Read from ANTHROPIC_API_KEY, OPENAI_API_KEY or GEMINI_API_KEY/GOOGLE_API_KEY.
	APIKey string

	// OllamaHost is the base URL of the Ollama server. Default: http://localhost:11434
	OllamaHost string
}

// LoadGeneratorConfig loads generator configuration from environment variables.
//
// Environment variables:
//   - GENERATOR_PROVIDER: claude, openai, gemini, ollama or echo (default: claude)
//   - GENERATOR_MODEL: model name (default: provider specific)
//   - GENERATOR_MAX_TOKENS: response token limit (default: 1024)
//   - GENERATOR_TIMEOUT: per call timeout (default: 60s)
//   - GENERATOR_RPS / GENERATOR_BURST: rate limit (default: 2 / 4)
//   - GENERATOR_MAX_ATTEMPTS: attempts per call (default: 3)
//   - ANTHROPIC_API_KEY, OPENAI_API_KEY, GEMINI_API_KEY, GOOGLE_API_KEY
//   - OLLAMA_HOST (default: http://localhost:11434)
func LoadGeneratorConfig() (*GeneratorConfig, error) {
	provider := strings.ToLower(envcfg.GetEnvString("GENERATOR_PROVIDER", ProviderClaude))

	cfg := &GeneratorConfig{
		Provider:          provider,
		Model:             envcfg.GetEnvString("GENERATOR_MODEL", defaultModels[provider]),
		MaxTokens:         envcfg.GetEnvInt("GENERATOR_MAX_TOKENS", 1024),
		Timeout:           envcfg.GetEnvDuration("GENERATOR_TIMEOUT", 60*time.Second),
		RequestsPerSecond: envcfg.GetEnvFloat("GENERATOR_RPS", 2),
		Burst:             envcfg.GetEnvInt("GENERATOR_BURST", 4),
		MaxAttempts:       envcfg.GetEnvInt("GENERATOR_MAX_ATTEMPTS", 3),
		APIKey:            apiKeyFor(provider),
		OllamaHost:        envcfg.GetEnvString("OLLAMA_HOST", "http://localhost:11434"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid generator configuration: %w", err)
	}
	return cfg, nil
}

func apiKeyFor(provider string) string {
	switch provider {
	case ProviderClaude:
		return envcfg.GetEnvString("ANTHROPIC_API_KEY", "")
	case ProviderOpenAI:
		return envcfg.GetEnvString("OPENAI_API_KEY", "")
	case ProviderGemini:
		return envcfg.GetEnvString("GEMINI_API_KEY", envcfg.GetEnvString("GOOGLE_API_KEY", ""))
	default:
		return ""
	}
}

// RequiresAPIKey reports whether the provider is a hosted API.
func (c *GeneratorConfig) RequiresAPIKey() bool {
	switch c.Provider {
	case ProviderClaude, ProviderOpenAI, ProviderGemini:
		return true
	}
	return false
}

// Validate checks configuration correctness.
func (c *GeneratorConfig) Validate() error {
	if _, ok := defaultModels[c.Provider]; !ok {
		return fmt.Errorf("GENERATOR_PROVIDER %q is not supported", c.Provider)
	}
	if c.Model == "" {
		return fmt.Errorf("GENERATOR_MODEL cannot be empty")
	}
	if c.RequiresAPIKey() && c.APIKey == "" {
		return fmt.Errorf("API key is required for provider %s", c.Provider)
	}
	if err := envcfg.ValidateIntRange(c.MaxTokens, 1, 32768); err != nil {
		return fmt.Errorf("GENERATOR_MAX_TOKENS: %w", err)
	}
	if err := envcfg.ValidatePositiveDuration(c.Timeout); err != nil {
		return fmt.Errorf("GENERATOR_TIMEOUT: %w", err)
	}
	if err := envcfg.ValidatePositiveFloat(c.RequestsPerSecond); err != nil {
		return fmt.Errorf("GENERATOR_RPS: %w", err)
	}
	if err := envcfg.ValidateIntRange(c.Burst, 1, 1000); err != nil {
		return fmt.Errorf("GENERATOR_BURST: %w", err)
	}
	if err := envcfg.ValidateIntRange(c.MaxAttempts, 1, 10); err != nil {
		return fmt.Errorf("GENERATOR_MAX_ATTEMPTS: %w", err)
	}
	if c.Provider == ProviderOllama && c.OllamaHost == "" {
		return fmt.Errorf("OLLAMA_HOST cannot be empty")
	}
	return nil
}
