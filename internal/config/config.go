// Copyright 2026 The pulsefitLocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config provides configuration management for the pulsefitLocal
// data layer. It handles loading and parsing YAML configuration files, and
// provides structured access to the remote API base URL, cache settings,
// fallback behavior, and OAuth sign-in parameters.
package config

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"gopkg.in/yaml.v3"
)

// Config represents the application's configuration, loaded from a YAML file.
type Config struct {
	// APIBaseURL is the root of the remote REST API, e.g. "https://api.pulsefit.app".
	// Entity endpoints live under "<APIBaseURL>/api/v1/<resource>".
	APIBaseURL string `yaml:"api-base-url"`

	// StateDir overrides the state directory (default ~/.pulsefit, also
	// settable through PULSEFIT_STATE_DIR).
	StateDir string `yaml:"state-dir"`

	// StoreBackend selects the cache persistence backend: "file" (default)
	// keeps one JSON document per collection, "sqlite" keeps a single
	// database file.
	StoreBackend string `yaml:"store-backend"`

	// FallbackPolicy controls how remote failures are handled:
	// "always-fallback" (default), "fail-fast", or "retry-then-fallback".
	FallbackPolicy string `yaml:"fallback-policy"`

	// RequestRetry defines the retry times when a remote request failed.
	// Only consulted by the retry-then-fallback policy.
	RequestRetry int `yaml:"request-retry"`

	// RequestTimeoutSeconds bounds each remote attempt. 0 disables the
	// timeout and leaves the transport default in place.
	RequestTimeoutSeconds int `yaml:"request-timeout-seconds"`

	// Debug enables or disables debug-level logging.
	Debug bool `yaml:"debug"`

	// LoggingToFile controls whether application logs are written to
	// rotating files under the state directory or to stdout.
	LoggingToFile bool `yaml:"logging-to-file"`

	// OAuth configures the optional browser sign-in flow.
	OAuth OAuthConfig `yaml:"oauth"`
}

// OAuthConfig holds the authorization-code flow endpoints and client
// identity used by the OAuth sign-in path.
type OAuthConfig struct {
	ClientID     string   `yaml:"client-id"`
	ClientSecret string   `yaml:"client-secret"`
	AuthURL      string   `yaml:"auth-url"`
	TokenURL     string   `yaml:"token-url"`
	RedirectURL  string   `yaml:"redirect-url"`
	Scopes       []string `yaml:"scopes"`
}

// Default fills in every unset field with its documented default.
func (c *Config) Default() {
	if c.StoreBackend == "" {
		c.StoreBackend = "file"
	}
	if c.FallbackPolicy == "" {
		c.FallbackPolicy = "always-fallback"
	}
	if c.RequestRetry < 0 {
		c.RequestRetry = 0
	}
}

// Validate rejects combinations the data layer cannot run with.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case "", "file", "sqlite":
	default:
		return fmt.Errorf("config: unknown store-backend %q", c.StoreBackend)
	}
	switch c.FallbackPolicy {
	case "", "always-fallback", "fail-fast", "retry-then-fallback":
	default:
		return fmt.Errorf("config: unknown fallback-policy %q", c.FallbackPolicy)
	}
	return nil
}

// LoadConfig reads and parses the given YAML configuration file.
func LoadConfig(configFile string) (*Config, error) {
	return LoadConfigOptional(configFile, false)
}

// LoadConfigOptional reads YAML from configFile.
// If optional is true and the file is missing or empty, it returns a Config
// populated with defaults so the layer can run fully offline out of the box.
func LoadConfigOptional(configFile string, optional bool) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		if optional && (os.IsNotExist(err) || errors.Is(err, syscall.EISDIR)) {
			cfg := &Config{}
			cfg.Default()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if optional && len(data) == 0 {
		cfg := &Config{}
		cfg.Default()
		return cfg, nil
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.Default()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
