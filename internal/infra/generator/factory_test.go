package generator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"text-digest/internal/config"
)

func TestNew(t *testing.T) {
	base := config.GeneratorConfig{
		Model:             "m",
		MaxTokens:         100,
		Timeout:           time.Second,
		RequestsPerSecond: 10,
		Burst:             1,
		MaxAttempts:       1,
		APIKey:            "key",
		OllamaHost:        "http://localhost:11434",
	}

	tests := []struct {
		provider string
		wantErr  bool
	}{
		{provider: config.ProviderClaude},
		{provider: config.ProviderOpenAI},
		{provider: config.ProviderOllama},
		{provider: config.ProviderEcho},
		{provider: "unknown", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			cfg := base
			cfg.Provider = tt.provider

			client, err := New(context.Background(), &cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer func() { _ = client.Close() }()
			assert.Equal(t, tt.provider, client.Provider())
		})
	}
}

func TestNew_EchoGenerates(t *testing.T) {
	cfg := &config.GeneratorConfig{
		Provider: config.ProviderEcho, Model: "echo", MaxTokens: 4,
		Timeout: time.Second, RequestsPerSecond: 100, Burst: 10, MaxAttempts: 1,
	}
	client, err := New(context.Background(), cfg)
	require.NoError(t, err)

	out, err := client.Generate(context.Background(), "abcdefgh")
	require.NoError(t, err)
	assert.Equal(t, "abcd", out)
}
