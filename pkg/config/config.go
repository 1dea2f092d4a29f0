// Package config loads llmbridge configuration from YAML with environment
// variable expansion.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all llmbridge configuration.
type Config struct {
	// DatabaseURL selects the storage backend: a postgres:// URL, a
	// sqlite:// URL or .db path, or empty for the embedded default file.
	DatabaseURL string `yaml:"database_url"`

	// Origin tags ledger entries written on behalf of this deployment.
	Origin string `yaml:"origin"`

	LogLevel string `yaml:"log_level"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Origin:   "llmbridge",
		LogLevel: "info",
	}
}

// Load reads a YAML config file and expands environment variables. A missing
// DatabaseURL falls back to the DATABASE_URL environment variable.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnv()
	return cfg, nil
}

// FromEnv returns the default config overlaid with environment variables,
// for running without a config file.
func FromEnv() *Config {
	cfg := Default()
	cfg.applyEnv()
	return cfg
}

func (c *Config) applyEnv() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
}
