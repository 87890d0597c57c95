package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Prompts holds map and reduce template overrides read from YAML:
//
//	map: |
//	  Summarize the following text:
//	  {doc}
//	reduce: |
//	  Combine these summaries:
//	  {doc}
type Prompts struct {
	Map    string `yaml:"map"`
	Reduce string `yaml:"reduce"`
}

// LoadPrompts reads prompt templates from a YAML file.
// The path is expected to come from trusted configuration.
func LoadPrompts(path string) (*Prompts, error) {
	// #nosec G304 -- path comes from SUMMARIZER_PROMPTS_FILE or a CLI flag
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}
	return ParsePrompts(data)
}

// ParsePrompts parses prompt templates from YAML content.
func ParsePrompts(data []byte) (*Prompts, error) {
	var p Prompts
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse prompts: %w", err)
	}
	if strings.TrimSpace(p.Map) == "" {
		return nil, fmt.Errorf("prompts: map template is required")
	}
	if strings.TrimSpace(p.Reduce) == "" {
		return nil, fmt.Errorf("prompts: reduce template is required")
	}
	return &p, nil
}
