// Package config provides configuration management.
package config

import (
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"

	"github.com/santoshpalla27/aws-frontend-estimation/internal/errors"
	"github.com/santoshpalla27/aws-frontend-estimation/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version"`

	// RegistryPath is the path to the service registry file
	RegistryPath string `json:"registry_path"`

	// WorkDir holds raw downloads and run manifests
	WorkDir string `json:"work_dir"`

	// OutputDir holds versioned pricing snapshots
	OutputDir string `json:"output_dir"`

	// Region is the pricing region retained from each offer file
	Region string `json:"region"`

	// Currency is the currency extracted from offer files
	Currency string `json:"currency"`

	// Fetch contains download configuration
	Fetch FetchConfig `json:"fetch"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// FetchConfig contains download-related settings
type FetchConfig struct {
	// BaseURL is the bulk price list endpoint
	BaseURL string `json:"base_url"`

	// Concurrency is the maximum number of parallel downloads
	Concurrency int `json:"concurrency"`

	// TimeoutSeconds is the per-download timeout
	TimeoutSeconds int `json:"timeout_seconds"`
}

// Default returns a default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	baseDir := filepath.Join(homeDir, ".aws-pricing-pipeline")

	return &Config{
		Version:      "1.0",
		RegistryPath: "services.hcl",
		WorkDir:      filepath.Join(baseDir, "work"),
		OutputDir:    filepath.Join(baseDir, "pricing"),
		Region:       "us-east-1",
		Currency:     "USD",
		Fetch: FetchConfig{
			BaseURL:        "https://pricing.us-east-1.amazonaws.com",
			Concurrency:    4,
			TimeoutSeconds: 300,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration from a file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(errors.TypeConfig, "invalid configuration file", err).
			WithContext("path", path)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if c.RegistryPath == "" {
		return errors.Config("registry_path must not be empty")
	}
	if c.WorkDir == "" {
		return errors.Config("work_dir must not be empty")
	}
	if c.OutputDir == "" {
		return errors.Config("output_dir must not be empty")
	}
	if c.Region == "" {
		return errors.Config("region must not be empty")
	}
	if c.Currency == "" {
		return errors.Config("currency must not be empty")
	}
	if c.Fetch.BaseURL == "" {
		return errors.Config("fetch.base_url must not be empty")
	}
	if c.Fetch.Concurrency < 1 {
		return errors.Newf(errors.TypeConfig, "fetch.concurrency must be at least 1, got %d", c.Fetch.Concurrency)
	}
	if c.Fetch.TimeoutSeconds < 1 {
		return errors.Newf(errors.TypeConfig, "fetch.timeout_seconds must be at least 1, got %d", c.Fetch.TimeoutSeconds)
	}
	return nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
