// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"docguard/internal/paths"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	// Default settings
	Defaults struct {
		Format    string `yaml:"format"`
		Verbose   bool   `yaml:"verbose"`
		Debug     bool   `yaml:"debug"`
		NoColor   bool   `yaml:"no_color"`
		Quiet     bool   `yaml:"quiet"`
		InPlace   bool   `yaml:"in_place"`
		OutputDir string `yaml:"output_dir"`
		LogLevel  string `yaml:"log_level"`
		LogFormat string `yaml:"log_format"`
	} `yaml:"defaults"`

	// Redaction run settings. The rules and the marker are fixed.
	Redaction struct {
		TrackChanges    bool   `yaml:"track_changes"`
		ClearHyperlinks bool   `yaml:"clear_hyperlinks"`
		AuditLog        string `yaml:"audit_log"`
	} `yaml:"redaction"`

	// HTTP trigger surface
	Server struct {
		Listen         string  `yaml:"listen"`
		RateLimit      float64 `yaml:"rate_limit"`
		Burst          int     `yaml:"burst"`
		AllowAnyOrigin bool    `yaml:"allow_any_origin"`
		MaxUploadMB    int64   `yaml:"max_upload_mb"`
	} `yaml:"server"`

	// Inbox watcher
	Watch struct {
		Inbox     string        `yaml:"inbox"`
		OutputDir string        `yaml:"output_dir"`
		Debounce  time.Duration `yaml:"debounce"`
	} `yaml:"watch"`

	// Profiles for different redaction scenarios
	Profiles map[string]Profile `yaml:"profiles"`
}

// Profile overrides defaults for a named scenario. Empty strings and false
// values leave the defaults untouched.
type Profile struct {
	Description     string `yaml:"description"`
	Format          string `yaml:"format"`
	OutputDir       string `yaml:"output_dir"`
	InPlace         bool   `yaml:"in_place"`
	NoColor         bool   `yaml:"no_color"`
	Quiet           bool   `yaml:"quiet"`
	Debug           bool   `yaml:"debug"`
	DisableTracking bool   `yaml:"disable_tracking"`
	AuditLog        string `yaml:"audit_log"`
}

var validFormats = map[string]bool{"text": true, "json": true, "yaml": true, "csv": true}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Default returns the built-in configuration
func Default() *Config {
	config := &Config{
		Profiles: make(map[string]Profile),
	}

	config.Defaults.Format = "text"
	config.Defaults.OutputDir = paths.NormalizePath("./redacted")
	config.Defaults.LogLevel = "warn"
	config.Defaults.LogFormat = "console"

	config.Redaction.TrackChanges = true
	config.Redaction.ClearHyperlinks = true

	config.Server.Listen = "127.0.0.1:8080"
	config.Server.RateLimit = 2
	config.Server.Burst = 4
	config.Server.MaxUploadMB = 32

	config.Watch.OutputDir = paths.NormalizePath("./redacted")
	config.Watch.Debounce = 500 * time.Millisecond

	config.Profiles["in-place"] = Profile{
		Description: "Redact files where they are instead of writing copies",
		InPlace:     true,
	}
	config.Profiles["ci"] = Profile{
		Description: "Machine readable output without colors or progress lines",
		Format:      "json",
		NoColor:     true,
		Quiet:       true,
	}
	return config
}

// LoadConfig loads configuration from the specified file path. An empty path
// returns the defaults.
func LoadConfig(configPath string) (*Config, error) {
	config := Default()
	if configPath == "" {
		return config, nil
	}

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if containsField(data, "redaction", "rules") || containsField(data, "redaction", "marker") {
		return nil, fmt.Errorf("redaction rules and marker are fixed and cannot be configured")
	}
	if containsField(data, "redaction", "memory_scrub") {
		return nil, fmt.Errorf("redaction.memory_scrub is not supported: matched values live in immutable strings and cannot be wiped")
	}
	if config.Profiles == nil {
		config.Profiles = Default().Profiles
	}

	config.Defaults.OutputDir = paths.NormalizePath(config.Defaults.OutputDir)
	config.Watch.OutputDir = paths.NormalizePath(config.Watch.OutputDir)

	if err := ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return config, nil
}

// FindConfigFile looks for a configuration file in the working directory,
// then in the user configuration directory.
func FindConfigFile() string {
	for _, name := range []string{"docguard.yaml", "docguard.yml", ".docguard.yaml", ".docguard.yml"} {
		if fileExists(name) {
			return name
		}
	}
	if standard := paths.GetConfigFile(); fileExists(standard) {
		return standard
	}
	return ""
}

// LoadConfigOrDefault loads configuration from configFile (or searches standard
// locations when configFile is empty). If loading fails, it returns the defaults
// together with the load error so callers can warn.
func LoadConfigOrDefault(configFile string) (*Config, error) {
	configPath := configFile
	if configPath == "" {
		configPath = FindConfigFile()
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		return Default(), err
	}
	return cfg, nil
}

// ListProfiles returns the profile names, sorted
func (c *Config) ListProfiles() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetProfile returns a profile by name, or nil if not found
func (c *Config) GetProfile(name string) *Profile {
	if profile, exists := c.Profiles[name]; exists {
		return &profile
	}
	return nil
}

// ApplyProfile merges the named profile into the defaults
func (c *Config) ApplyProfile(name string) error {
	profile := c.GetProfile(name)
	if profile == nil {
		return fmt.Errorf("profile %q not found (available: %v)", name, c.ListProfiles())
	}

	if profile.Format != "" {
		c.Defaults.Format = profile.Format
	}
	if profile.OutputDir != "" {
		c.Defaults.OutputDir = paths.NormalizePath(profile.OutputDir)
	}
	if profile.AuditLog != "" {
		c.Redaction.AuditLog = profile.AuditLog
	}
	c.Defaults.InPlace = c.Defaults.InPlace || profile.InPlace
	c.Defaults.NoColor = c.Defaults.NoColor || profile.NoColor
	c.Defaults.Quiet = c.Defaults.Quiet || profile.Quiet
	c.Defaults.Debug = c.Defaults.Debug || profile.Debug
	if profile.DisableTracking {
		c.Redaction.TrackChanges = false
	}
	return ValidateConfig(c)
}

// ValidateConfig validates the configuration
func ValidateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("configuration cannot be nil")
	}

	if !validFormats[config.Defaults.Format] {
		return fmt.Errorf("unsupported output format %q (use text, json, yaml or csv)", config.Defaults.Format)
	}
	if !validLogLevels[config.Defaults.LogLevel] {
		return fmt.Errorf("unsupported log level %q", config.Defaults.LogLevel)
	}
	if config.Defaults.LogFormat != "console" && config.Defaults.LogFormat != "json" {
		return fmt.Errorf("unsupported log format %q (use console or json)", config.Defaults.LogFormat)
	}

	if config.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit cannot be negative")
	}
	if config.Server.RateLimit > 0 && config.Server.Burst < 1 {
		return fmt.Errorf("server.burst must be at least 1 when rate limiting is enabled")
	}
	if config.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server.max_upload_mb must be positive")
	}
	if config.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce cannot be negative")
	}

	for field, path := range map[string]string{
		"defaults.output_dir": config.Defaults.OutputDir,
		"redaction.audit_log": config.Redaction.AuditLog,
		"watch.inbox":         config.Watch.Inbox,
		"watch.output_dir":    config.Watch.OutputDir,
	} {
		if err := paths.ValidatePath(path); err != nil {
			return fmt.Errorf("invalid %s: %w", field, err)
		}
	}
	return nil
}

// containsField checks if a nested field exists in the YAML data
func containsField(data []byte, path ...string) bool {
	var yamlData map[string]interface{}
	if err := yaml.Unmarshal(data, &yamlData); err != nil {
		return false
	}

	current := yamlData
	for i, key := range path {
		if i == len(path)-1 {
			_, exists := current[key]
			return exists
		}
		next, ok := current[key].(map[string]interface{})
		if !ok {
			return false
		}
		current = next
	}
	return false
}

// fileExists checks if a file exists and is not a directory
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
