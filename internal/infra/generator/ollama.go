package generator

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

// Ollama implements Backend using a local or remote Ollama server.
type Ollama struct {
	client    *api.Client
	model     string
	maxTokens int
}

// NewOllama creates an Ollama backend for the server at host.
func NewOllama(host, model string, maxTokens int, httpClient *http.Client) (*Ollama, error) {
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Ollama{
		client:    api.NewClient(u, httpClient),
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

// Name implements Backend.
func (o *Ollama) Name() string { return "ollama" }

// Complete implements Backend.
func (o *Ollama) Complete(ctx context.Context, prompt string) (string, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:   o.model,
		Prompt:  prompt,
		Stream:  &stream,
		Options: map[string]any{"num_predict": o.maxTokens},
	}

	var sb strings.Builder
	err := o.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		sb.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama api error: %w", classify(err))
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", fmt.Errorf("ollama: %w", ErrEmptyResponse)
	}
	return sb.String(), nil
}
