package config

import (
	"fmt"
	"time"

	envcfg "text-digest/pkg/config"
)

// SummarizerConfig holds the map-reduce controller settings.
type SummarizerConfig struct {
	// TokenMax is the character budget for combined partial summaries. Default: 3000
	TokenMax int
	// MaxCollapseIterations caps collapse rounds. Default: 10
	MaxCollapseIterations int
	// ChunkSize splits long documents before mapping; 0 disables. Default: 0
	ChunkSize int
	// MapParallelism bounds concurrent map calls. Default: 4
	MapParallelism int
	// PromptsFile optionally points to a YAML file with map and reduce templates.
	PromptsFile string
	// Timeout bounds one whole summarization. Default: 120s
	Timeout time.Duration
}

// LoadSummarizerConfig loads summarizer configuration from environment variables.
//
// Environment variables:
//   - SUMMARIZER_TOKEN_MAX (default: 3000)
//   - SUMMARIZER_MAX_COLLAPSE (default: 10)
//   - SUMMARIZER_CHUNK_SIZE (default: 0)
//   - SUMMARIZER_MAP_PARALLELISM (default: 4)
//   - SUMMARIZER_PROMPTS_FILE (default: built-in Portuguese templates)
//   - SUMMARIZER_TIMEOUT (default: 120s)
func LoadSummarizerConfig() (*SummarizerConfig, error) {
	cfg := &SummarizerConfig{
		TokenMax:              envcfg.GetEnvInt("SUMMARIZER_TOKEN_MAX", 3000),
		MaxCollapseIterations: envcfg.GetEnvInt("SUMMARIZER_MAX_COLLAPSE", 10),
		ChunkSize:             envcfg.GetEnvInt("SUMMARIZER_CHUNK_SIZE", 0),
		MapParallelism:        envcfg.GetEnvInt("SUMMARIZER_MAP_PARALLELISM", 4),
		PromptsFile:           envcfg.GetEnvString("SUMMARIZER_PROMPTS_FILE", ""),
		Timeout:               envcfg.GetEnvDuration("SUMMARIZER_TIMEOUT", 120*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid summarizer configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration correctness.
func (c *SummarizerConfig) Validate() error {
	if err := envcfg.ValidateIntRange(c.TokenMax, 1, 1_000_000); err != nil {
		return fmt.Errorf("SUMMARIZER_TOKEN_MAX: %w", err)
	}
	if err := envcfg.ValidateIntRange(c.MaxCollapseIterations, 1, 100); err != nil {
		return fmt.Errorf("SUMMARIZER_MAX_COLLAPSE: %w", err)
	}
	if err := envcfg.ValidateIntRange(c.ChunkSize, 0, 1_000_000); err != nil {
		return fmt.Errorf("SUMMARIZER_CHUNK_SIZE: %w", err)
	}
	if err := envcfg.ValidateIntRange(c.MapParallelism, 1, 64); err != nil {
		return fmt.Errorf("SUMMARIZER_MAP_PARALLELISM: %w", err)
	}
	if err := envcfg.ValidatePositiveDuration(c.Timeout); err != nil {
		return fmt.Errorf("SUMMARIZER_TIMEOUT: %w", err)
	}
	return nil
}
