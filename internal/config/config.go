// Package config provides configuration management for tf-style-check.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
)

// Config is the optional YAML configuration. It narrows which rules run
// and extends the built-in pattern lists; the canonical file names the
// analyzer assumes are constants, not configuration.
type Config struct {
	Categories        []string `yaml:"categories"`
	ExcludeRules      []string `yaml:"exclude_rules"`
	AllowedVariables  []string `yaml:"allowed_variables"`
	SensitivePatterns []string `yaml:"sensitive_patterns"`
	Workers           int      `yaml:"workers"`
	Offline           bool     `yaml:"offline"`
}

// DefaultConfigNames are searched in the working directory when no config
// file is given explicitly.
var DefaultConfigNames = []string{
	"tf-style-check.yaml",
	"tf-style-check.yml",
	".tf-style-check.yaml",
	".tf-style-check.yml",
}

// LoadConfig reads and validates a configuration file. An empty path
// returns the zero config.
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}

	if !filepath.IsAbs(configPath) {
		abs, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path: %w", err)
		}
		configPath = abs
	}

	stat, err := os.Stat(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to access config file: %w", err)
	}

	const maxConfigSize = 1024 * 1024 // 1MB limit to prevent DoS
	if stat.Size() > maxConfigSize {
		return nil, fmt.Errorf("config file too large (max %d bytes): %d bytes", maxConfigSize, stat.Size())
	}

	if !stat.Mode().IsRegular() {
		return nil, fmt.Errorf("config path must be a regular file: %s", configPath)
	}

	data, err := os.ReadFile(configPath) //nolint:gosec // configPath is validated for safety
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := validateConfigFields(data); err != nil {
		return nil, fmt.Errorf("invalid configuration fields: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// FindDefault returns the first default config file present in the
// working directory, or "".
func FindDefault() string {
	for _, name := range DefaultConfigNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

func validateConfig(config *Config) error {
	if config.Workers < 0 {
		return fmt.Errorf("workers must not be negative: %d", config.Workers)
	}
	for i, name := range config.AllowedVariables {
		if name == "" {
			return fmt.Errorf("allowed variable %d is empty", i+1)
		}
		if strings.ContainsAny(name, " \t\n") {
			return fmt.Errorf("allowed variable %d (%q) contains whitespace", i+1, name)
		}
	}
	for i, id := range config.ExcludeRules {
		if id == "" {
			return fmt.Errorf("excluded rule %d is empty", i+1)
		}
	}
	for i, pattern := range config.SensitivePatterns {
		if pattern == "" {
			return fmt.Errorf("sensitive pattern %d is empty", i+1)
		}
	}
	// Category and rule id values are validated against the registry by
	// the runner, so an unknown name fails before any file is processed.
	return nil
}

func validateConfigFields(data []byte) error {
	var rawConfig map[string]any
	if err := yaml.Unmarshal(data, &rawConfig); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	validFields := map[string]bool{
		"categories":         true,
		"exclude_rules":      true,
		"allowed_variables":  true,
		"sensitive_patterns": true,
		"workers":            true,
		"offline":            true,
	}

	var invalidFields []string
	for field := range rawConfig {
		if !validFields[field] {
			invalidFields = append(invalidFields, fmt.Sprintf("%q", field))
		}
	}
	if len(invalidFields) > 0 {
		return fmt.Errorf("unknown fields found: %s", strings.Join(invalidFields, ", "))
	}
	return nil
}
