// Package config loads pressroom configuration.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"pressroom/app/logging"
)

// Config is the full configuration.
type Config struct {
	API     APIConfig      `koanf:"api"`
	Cache   CacheConfig    `koanf:"cache"`
	Gateway GatewayConfig  `koanf:"gateway"`
	Log     logging.Config `koanf:"log"`
}

// APIConfig points the client at the portal API.
type APIConfig struct {
	BaseURL   string        `koanf:"base_url"`
	Timeout   time.Duration `koanf:"timeout"`
	RateLimit float64       `koanf:"rate_limit"`
	Burst     int           `koanf:"burst"`
}

// CacheConfig locates the session cache.
type CacheConfig struct {
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`
}

// GatewayConfig configures `pressroom serve`.
type GatewayConfig struct {
	Addr            string        `koanf:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Default values.
const (
	DefaultBaseURL         = "http://localhost:5000/api"
	DefaultTimeout         = 15 * time.Second
	DefaultRateLimit       = 10
	DefaultBurst           = 20
	DefaultGatewayAddr     = "127.0.0.1:8080"
	DefaultShutdownTimeout = 10 * time.Second
)

// Dir returns ~/.config/pressroom.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "pressroom"), nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = DefaultBaseURL
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = DefaultTimeout
	}
	if cfg.API.RateLimit == 0 {
		cfg.API.RateLimit = DefaultRateLimit
	}
	if cfg.API.Burst == 0 {
		cfg.API.Burst = DefaultBurst
	}
	if cfg.Cache.Path == "" && !cfg.Cache.InMemory {
		if dir, err := Dir(); err == nil {
			cfg.Cache.Path = filepath.Join(dir, "cache")
		}
	}
	if cfg.Gateway.Addr == "" {
		cfg.Gateway.Addr = DefaultGatewayAddr
	}
	if cfg.Gateway.ShutdownTimeout == 0 {
		cfg.Gateway.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
}

// Validate checks the configuration for values the client cannot work with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("api.base_url must be an absolute http(s) URL, got %q", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return errors.New("api.timeout must be positive")
	}
	if c.API.RateLimit < 0 {
		return errors.New("api.rate_limit cannot be negative")
	}
	if c.API.Burst < 1 {
		return errors.New("api.burst must be at least 1")
	}
	if !c.Cache.InMemory && c.Cache.Path == "" {
		return errors.New("cache.path is required unless cache.in_memory is set")
	}
	if c.Gateway.ShutdownTimeout <= 0 {
		return errors.New("gateway.shutdown_timeout must be positive")
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}
