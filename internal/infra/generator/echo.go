package generator

import (
	"context"
	"strings"
	"unicode/utf8"
)

// Echo is an offline backend that returns the prompt truncated to a fixed
// number of characters. It is deterministic and useful for development and
// tests when no provider is configured.
type Echo struct {
	maxChars int
}

// NewEcho creates an Echo backend. Non-positive maxChars defaults to 500.
func NewEcho(maxChars int) *Echo {
	if maxChars <= 0 {
		maxChars = 500
	}
	return &Echo{maxChars: maxChars}
}

// Name implements Backend.
func (e *Echo) Name() string { return "echo" }

// Complete implements Backend.
func (e *Echo) Complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	out := strings.TrimSpace(prompt)
	if out == "" {
		return "", ErrEmptyResponse
	}
	if utf8.RuneCountInString(out) <= e.maxChars {
		return out, nil
	}
	return string([]rune(out)[:e.maxChars]), nil
}
