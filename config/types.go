package config

import (
	"fmt"

	"github.com/grovetools/seqrkit/pkg/paths"
	"github.com/mitchellh/mapstructure"
)

//go:generate go run ../tools/schema-generator/

// APIConfig describes how to reach the remote analysis API.
type APIConfig struct {
	BaseURL   string            `yaml:"base_url,omitempty" toml:"base_url,omitempty" jsonschema:"description=Base URL of the remote API (e.g. https://seqr.example.org)"`
	CSRFToken string            `yaml:"csrf_token,omitempty" toml:"csrf_token,omitempty" jsonschema:"description=CSRF token sent with every request"`
	Headers   map[string]string `yaml:"headers,omitempty" toml:"headers,omitempty" jsonschema:"description=Extra headers sent with every request"`
}

// ReportConfig controls report loading and export.
type ReportConfig struct {
	BatchSize    int    `yaml:"batch_size,omitempty" toml:"batch_size,omitempty" jsonschema:"minimum=1,description=Number of per-scope requests issued concurrently when loading the all scope (default: 5)"`
	AllScope     string `yaml:"all_scope,omitempty" toml:"all_scope,omitempty" jsonschema:"description=Scope value that fans out over every project (default: all)"`
	ExportFormat string `yaml:"export_format,omitempty" toml:"export_format,omitempty" jsonschema:"enum=tsv,enum=csv,description=Default export format"`
	RowsKey      string `yaml:"rows_key,omitempty" toml:"rows_key,omitempty" jsonschema:"description=Response field holding report rows (default: rows)"`
}

// PersistenceConfig controls page snapshots kept between runs.
type PersistenceConfig struct {
	Enabled    *bool  `yaml:"enabled,omitempty" toml:"enabled,omitempty" jsonschema:"description=Whether page state is persisted (default: true)"`
	Dir        string `yaml:"dir,omitempty" toml:"dir,omitempty" jsonschema:"description=Directory holding snapshot files"`
	ThrottleMs int    `yaml:"throttle_ms,omitempty" toml:"throttle_ms,omitempty" jsonschema:"minimum=0,description=Minimum delay between snapshot writes in milliseconds (default: 500)"`
}

// Config represents the seqrkit.yml configuration
type Config struct {
	Name        string            `yaml:"name,omitempty" toml:"name,omitempty" jsonschema:"description=Name of this deployment"`
	Version     string            `yaml:"version,omitempty" toml:"version,omitempty" jsonschema:"description=Configuration version (e.g. 1.0)"`
	API         APIConfig         `yaml:"api,omitempty" toml:"api,omitempty" jsonschema:"description=Remote API connection settings"`
	Report      ReportConfig      `yaml:"report,omitempty" toml:"report,omitempty" jsonschema:"description=Report loading and export settings"`
	Persistence PersistenceConfig `yaml:"persistence,omitempty" toml:"persistence,omitempty" jsonschema:"description=Persisted page state settings"`

	// Extensions captures all other top-level keys for extensibility.
	Extensions map[string]interface{} `yaml:",inline" toml:"-" jsonschema:"-"`
}

const (
	DefaultBatchSize    = 5
	DefaultAllScope     = "all"
	DefaultExportFormat = "tsv"
	DefaultRowsKey      = "rows"
	DefaultThrottleMs   = 500
)

// SetDefaults sets default values for configuration
func (c *Config) SetDefaults() {
	if c.Version == "" {
		c.Version = "1.0"
	}
	if c.Report.BatchSize == 0 {
		c.Report.BatchSize = DefaultBatchSize
	}
	if c.Report.AllScope == "" {
		c.Report.AllScope = DefaultAllScope
	}
	if c.Report.ExportFormat == "" {
		c.Report.ExportFormat = DefaultExportFormat
	}
	if c.Report.RowsKey == "" {
		c.Report.RowsKey = DefaultRowsKey
	}
	if c.Persistence.Enabled == nil {
		enabled := true
		c.Persistence.Enabled = &enabled
	}
	if c.Persistence.Dir == "" {
		c.Persistence.Dir = paths.SnapshotDir()
	} else {
		c.Persistence.Dir = paths.Expand(c.Persistence.Dir)
	}
	if c.Persistence.ThrottleMs == 0 {
		c.Persistence.ThrottleMs = DefaultThrottleMs
	}
}

// PersistenceEnabled reports whether page snapshots should be written.
func (c *Config) PersistenceEnabled() bool {
	return c.Persistence.Enabled == nil || *c.Persistence.Enabled
}

// UnmarshalExtension decodes a specific extension's configuration from the
// loaded seqrkit.yml into the provided target struct. The target must be a pointer.
//
// Example:
//
//	var logCfg logging.Config
//	err := cfg.UnmarshalExtension("logging", &logCfg)
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.Extensions[key]
	if !ok {
		// It's not an error if the key doesn't exist.
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension config for '%s': %w", key, err)
	}

	return nil
}

// ConfigSource identifies the origin of a configuration value.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceGlobal   ConfigSource = "global"
	SourceProject  ConfigSource = "project"
	SourceOverride ConfigSource = "override"
)

// OverrideSource holds a raw configuration from an override file and its path.
type OverrideSource struct {
	Path   string
	Config *Config
}

// LayeredConfig holds the raw configuration from each source file,
// as well as the final merged configuration, for analysis purposes.
type LayeredConfig struct {
	Default   *Config                 // Config with only default values applied.
	Global    *Config                 // Raw config from the global file.
	Project   *Config                 // Raw config from the project file.
	Overrides []OverrideSource        // Raw configs from override files, in order of application.
	Final     *Config                 // The fully merged and validated config.
	FilePaths map[ConfigSource]string // Maps sources to their file paths.
}
