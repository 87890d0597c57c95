package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var summarizerEnvVars = []string{
	"SUMMARIZER_TOKEN_MAX", "SUMMARIZER_MAX_COLLAPSE", "SUMMARIZER_CHUNK_SIZE",
	"SUMMARIZER_MAP_PARALLELISM", "SUMMARIZER_PROMPTS_FILE", "SUMMARIZER_TIMEOUT",
}

func TestLoadSummarizerConfig_Defaults(t *testing.T) {
	clearEnv(t, summarizerEnvVars)

	cfg, err := LoadSummarizerConfig()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.TokenMax)
	assert.Equal(t, 10, cfg.MaxCollapseIterations)
	assert.Equal(t, 0, cfg.ChunkSize)
	assert.Equal(t, 4, cfg.MapParallelism)
	assert.Empty(t, cfg.PromptsFile)
	assert.Equal(t, 120*time.Second, cfg.Timeout)
}

func TestLoadSummarizerConfig_CustomValues(t *testing.T) {
	clearEnv(t, summarizerEnvVars)
	t.Setenv("SUMMARIZER_TOKEN_MAX", "500")
	t.Setenv("SUMMARIZER_CHUNK_SIZE", "2000")
	t.Setenv("SUMMARIZER_PROMPTS_FILE", "/etc/digest/prompts.yaml")
	t.Setenv("SUMMARIZER_TIMEOUT", "5m")

	cfg, err := LoadSummarizerConfig()
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.TokenMax)
	assert.Equal(t, 2000, cfg.ChunkSize)
	assert.Equal(t, "/etc/digest/prompts.yaml", cfg.PromptsFile)
	assert.Equal(t, 5*time.Minute, cfg.Timeout)
}

func TestLoadSummarizerConfig_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "zero token max", key: "SUMMARIZER_TOKEN_MAX", value: "0"},
		{name: "negative chunk size", key: "SUMMARIZER_CHUNK_SIZE", value: "-1"},
		{name: "parallelism too high", key: "SUMMARIZER_MAP_PARALLELISM", value: "65"},
		{name: "collapse too high", key: "SUMMARIZER_MAX_COLLAPSE", value: "101"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t, summarizerEnvVars)
			t.Setenv(tt.key, tt.value)

			_, err := LoadSummarizerConfig()
			assert.Error(t, err)
		})
	}
}
