package config

import (
	"fmt"
	"time"

	envcfg "text-digest/pkg/config"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Addr is the listen address. Default: :8080
	Addr string
	// JWTSecret enables bearer token auth on /v1 routes when set.
	JWTSecret string
	// MaxBodyBytes caps request bodies. Default: 4 MiB
	MaxBodyBytes int64
	// ReadTimeout bounds reading a request. Default: 15s
	ReadTimeout time.Duration
	// ShutdownTimeout bounds graceful shutdown. Default: 10s
	ShutdownTimeout time.Duration
	// RateLimitRequests is the per-client request quota on /v1 routes.
	// Zero disables rate limiting. Default: 60
	RateLimitRequests int
	// RateLimitWindow is the sliding window of the quota. Default: 1m
	RateLimitWindow time.Duration
	// RateLimitMaxKeys bounds the clients tracked in memory. Default: 10000
	RateLimitMaxKeys int
}

const minJWTSecretLength = 32

// LoadServerConfig loads server configuration from environment variables.
//
// Environment variables:
//   - HTTP_ADDR (default: :8080)
//   - JWT_SECRET (optional, at least 32 bytes)
//   - HTTP_MAX_BODY_BYTES (default: 4194304)
//   - HTTP_READ_TIMEOUT (default: 15s)
//   - HTTP_SHUTDOWN_TIMEOUT (default: 10s)
//   - RATE_LIMIT_REQUESTS (default: 60, 0 disables)
//   - RATE_LIMIT_WINDOW (default: 1m)
//   - RATE_LIMIT_MAX_KEYS (default: 10000)
func LoadServerConfig() (*ServerConfig, error) {
	cfg := &ServerConfig{
		Addr:            envcfg.GetEnvString("HTTP_ADDR", ":8080"),
		JWTSecret:       envcfg.GetEnvString("JWT_SECRET", ""),
		MaxBodyBytes:    int64(envcfg.GetEnvInt("HTTP_MAX_BODY_BYTES", 4<<20)),
		ReadTimeout:     envcfg.GetEnvDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		ShutdownTimeout: envcfg.GetEnvDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),

		RateLimitRequests: envcfg.GetEnvInt("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   envcfg.GetEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		RateLimitMaxKeys:  envcfg.GetEnvInt("RATE_LIMIT_MAX_KEYS", 10000),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}
	return cfg, nil
}

// AuthEnabled reports whether bearer token auth is configured.
func (c *ServerConfig) AuthEnabled() bool {
	return c.JWTSecret != ""
}

// RateLimitEnabled reports whether /v1 requests are rate limited.
func (c *ServerConfig) RateLimitEnabled() bool {
	return c.RateLimitRequests > 0
}

// Validate checks configuration correctness.
func (c *ServerConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("HTTP_ADDR cannot be empty")
	}
	if c.JWTSecret != "" && len(c.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes", minJWTSecretLength)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("HTTP_MAX_BODY_BYTES must be positive")
	}
	if err := envcfg.ValidatePositiveDuration(c.ReadTimeout); err != nil {
		return fmt.Errorf("HTTP_READ_TIMEOUT: %w", err)
	}
	if err := envcfg.ValidatePositiveDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("HTTP_SHUTDOWN_TIMEOUT: %w", err)
	}
	if c.RateLimitRequests < 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must not be negative")
	}
	if c.RateLimitEnabled() {
		if err := envcfg.ValidatePositiveDuration(c.RateLimitWindow); err != nil {
			return fmt.Errorf("RATE_LIMIT_WINDOW: %w", err)
		}
		if c.RateLimitMaxKeys <= 0 {
			return fmt.Errorf("RATE_LIMIT_MAX_KEYS must be positive")
		}
	}
	return nil
}
