// Package main provides the TaskForge server CLI.
package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Files     FilesConfig     `yaml:"files"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Verbose   bool            `yaml:"-"` // set via CLI flag
}

// ServerConfig contains listener settings.
type ServerConfig struct {
	Address        string    `yaml:"address"`         // HTTP listen address (default: :8080)
	MetricsAddress string    `yaml:"metrics_address"` // Prometheus listen address (default: :9090)
	TLS            TLSConfig `yaml:"tls"`
}

// TLSConfig contains TLS settings for the API listener.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// DatabaseConfig contains SQLite settings.
type DatabaseConfig struct {
	Path string `yaml:"path"` // SQLite database file
}

// FilesConfig contains attachment storage settings.
type FilesConfig struct {
	Dir string `yaml:"dir"` // Directory for attachment blobs
}

// AuthConfig contains token and lockout settings. Durations use Go
// syntax ("15m", "168h").
type AuthConfig struct {
	AccessTokenTTL   string `yaml:"access_token_ttl"`
	RefreshTokenTTL  string `yaml:"refresh_token_ttl"`
	LockoutThreshold int    `yaml:"lockout_threshold"`
	LockoutDuration  string `yaml:"lockout_duration"`
}

// RateLimitConfig contains request rate limits.
type RateLimitConfig struct {
	PerIP   int `yaml:"per_ip"`   // Unauthenticated requests per minute per IP
	PerUser int `yaml:"per_user"` // Authenticated requests per minute per user
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// setDefaults sets default values for missing config fields.
func (c *Config) setDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Server.MetricsAddress == "" {
		c.Server.MetricsAddress = ":9090"
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/taskforge.db"
	}
	if c.Files.Dir == "" {
		c.Files.Dir = "data/attachments"
	}
	if c.Auth.AccessTokenTTL == "" {
		c.Auth.AccessTokenTTL = "15m"
	}
	if c.Auth.RefreshTokenTTL == "" {
		c.Auth.RefreshTokenTTL = "168h" // 7 days
	}
	if c.Auth.LockoutThreshold == 0 {
		c.Auth.LockoutThreshold = 5
	}
	if c.Auth.LockoutDuration == "" {
		c.Auth.LockoutDuration = "30m"
	}
	if c.RateLimit.PerIP == 0 {
		c.RateLimit.PerIP = 5
	}
	if c.RateLimit.PerUser == 0 {
		c.RateLimit.PerUser = 100
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server.address is required")
	}
	if c.Server.TLS.Enabled {
		if c.Server.TLS.CertFile == "" {
			return fmt.Errorf("server.tls.cert_file is required when TLS is enabled")
		}
		if c.Server.TLS.KeyFile == "" {
			return fmt.Errorf("server.tls.key_file is required when TLS is enabled")
		}
	}
	for _, d := range []struct {
		name  string
		value string
	}{
		{"auth.access_token_ttl", c.Auth.AccessTokenTTL},
		{"auth.refresh_token_ttl", c.Auth.RefreshTokenTTL},
		{"auth.lockout_duration", c.Auth.LockoutDuration},
	} {
		if _, err := time.ParseDuration(d.value); err != nil {
			return fmt.Errorf("%s: invalid duration %q", d.name, d.value)
		}
	}
	return nil
}

// duration returns the parsed duration. Validate has already checked
// the value, so a parse failure here is a programming error.
func duration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		panic(fmt.Sprintf("unvalidated duration %q: %v", s, err))
	}
	return d
}
