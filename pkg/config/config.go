// Package config provides configuration file support for Baton.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/baton-project/baton/pkg/model"
)

// Config represents the Baton configuration.
type Config struct {
	Lease   LeaseConfig   `yaml:"lease"`
	Logging LoggingConfig `yaml:"logging"`
	History HistoryConfig `yaml:"history"`
}

// LeaseConfig configures lease timing. Durations are Go duration strings.
type LeaseConfig struct {
	TTL               string `yaml:"ttl"`
	HeartbeatInterval string `yaml:"heartbeat_interval"`
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json, text
}

// HistoryConfig configures the session history archive.
type HistoryConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Lease: LeaseConfig{
			TTL: "30m",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		History: HistoryConfig{
			Enabled: true,
		},
	}
}

// Load loads configuration from .baton/config.yaml.
// Returns default config if file doesn't exist.
func Load(baseDir string) (*Config, error) {
	cfg := Default()
	cfgPath := filepath.Join(baseDir, ".baton", "config.yaml")

	data, err := os.ReadFile(cfgPath)
	if os.IsNotExist(err) {
		return cfg, nil // No config file is OK, use defaults
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// Save writes configuration to .baton/config.yaml.
func Save(baseDir string, cfg *Config) error {
	cfgPath := filepath.Join(baseDir, ".baton", "config.yaml")

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(cfgPath), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(cfgPath, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// LockPolicy converts the lease section into timing parameters, falling back
// to defaults when a duration is missing or unparseable.
func (c *Config) LockPolicy() model.LockPolicy {
	policy := model.DefaultLockPolicy()
	if d, err := time.ParseDuration(c.Lease.TTL); err == nil && d > 0 {
		policy.TTL = d
	}
	if d, err := time.ParseDuration(c.Lease.HeartbeatInterval); err == nil && d > 0 {
		policy.HeartbeatInterval = d
	}
	return policy
}
