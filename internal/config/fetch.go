package config

import (
	"fmt"
	"time"

	envcfg "text-digest/pkg/config"
)

// FetchConfig holds settings for fetching URL inputs.
type FetchConfig struct {
	// Enabled turns on the url input format. Default: true
	Enabled bool
	// Timeout bounds a single fetch including redirects. Default: 10s
	Timeout time.Duration
	// MaxBodySize caps the downloaded page in bytes. Default: 10 MiB
	MaxBodySize int64
	// MaxRedirects caps followed redirects. Default: 5
	MaxRedirects int
	// DenyPrivateIPs rejects hosts resolving to loopback, private or
	// link-local addresses. Default: true
	DenyPrivateIPs bool
}

// DefaultFetchConfig returns the default fetch settings.
func DefaultFetchConfig() FetchConfig {
	return FetchConfig{
		Enabled:        true,
		Timeout:        10 * time.Second,
		MaxBodySize:    10 << 20,
		MaxRedirects:   5,
		DenyPrivateIPs: true,
	}
}

// LoadFetchConfig loads fetch settings from environment variables.
//
// Environment variables:
//   - CONTENT_FETCH_ENABLED (default: true)
//   - CONTENT_FETCH_TIMEOUT (default: 10s)
//   - CONTENT_FETCH_MAX_BODY_SIZE (default: 10485760)
//   - CONTENT_FETCH_MAX_REDIRECTS (default: 5)
//   - CONTENT_FETCH_DENY_PRIVATE_IPS (default: true)
func LoadFetchConfig() (*FetchConfig, error) {
	def := DefaultFetchConfig()
	cfg := &FetchConfig{
		Enabled:        envcfg.GetEnvBool("CONTENT_FETCH_ENABLED", def.Enabled),
		Timeout:        envcfg.GetEnvDuration("CONTENT_FETCH_TIMEOUT", def.Timeout),
		MaxBodySize:    int64(envcfg.GetEnvInt("CONTENT_FETCH_MAX_BODY_SIZE", int(def.MaxBodySize))),
		MaxRedirects:   envcfg.GetEnvInt("CONTENT_FETCH_MAX_REDIRECTS", def.MaxRedirects),
		DenyPrivateIPs: envcfg.GetEnvBool("CONTENT_FETCH_DENY_PRIVATE_IPS", def.DenyPrivateIPs),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid fetch configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration correctness.
func (c *FetchConfig) Validate() error {
	if err := envcfg.ValidatePositiveDuration(c.Timeout); err != nil {
		return fmt.Errorf("CONTENT_FETCH_TIMEOUT: %w", err)
	}
	if c.MaxBodySize < 1024 {
		return fmt.Errorf("CONTENT_FETCH_MAX_BODY_SIZE must be at least 1024 bytes, got %d", c.MaxBodySize)
	}
	if err := envcfg.ValidateIntRange(c.MaxRedirects, 0, 20); err != nil {
		return fmt.Errorf("CONTENT_FETCH_MAX_REDIRECTS: %w", err)
	}
	return nil
}
