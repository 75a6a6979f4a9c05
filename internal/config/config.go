// Package config provides configuration management for the mirror pipeline.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied by DefaultConfig.
const (
	DefaultMetastoreURL   = "https://data.cms.gov/provider-data/api/1/metastore/schemas/dataset/items"
	DefaultCheckpointPath = "metadata.json"
	DefaultOutputDir      = "processed_csv"
	DefaultTheme          = "Hospitals"
	DefaultWorkers        = 5
	DefaultTimeoutSec     = 30
)

// Configuration validation errors.
var (
	ErrMissingMetastoreURL   = errors.New("metastore.url is required")
	ErrMissingCheckpointPath = errors.New("checkpoint.path is required")
	ErrMissingOutputDir      = errors.New("output.dir is required")
	ErrMissingTheme          = errors.New("filter.theme is required")
	ErrInvalidWorkers        = errors.New("workers must be at least 1")
	ErrInvalidTimeout        = errors.New("metastore.timeout_sec must be at least 1")
	ErrInvalidLogLevel       = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat      = errors.New("logging.format must be 'text' or 'json'")
	ErrMissingUploadEndpoint = errors.New("upload.endpoint is required when upload is enabled")
	ErrMissingUploadBucket   = errors.New("upload.bucket is required when upload is enabled")
	ErrMissingUploadKeys     = errors.New("upload.access_key and upload.secret_key are required when upload is enabled")
)

// Config represents the complete mirror configuration.
type Config struct {
	Mirror MirrorConfig `yaml:"mirror"`
}

// MirrorConfig contains pipeline-specific settings.
type MirrorConfig struct {
	Metastore  MetastoreConfig  `yaml:"metastore"`
	Filter     FilterConfig     `yaml:"filter"`
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
	Output     OutputConfig     `yaml:"output"`
	Logging    LoggingConfig    `yaml:"logging"`
	Upload     UploadConfig     `yaml:"upload"`
	Workers    int              `yaml:"workers"`
}

// MetastoreConfig locates the remote catalog listing.
type MetastoreConfig struct {
	URL        string `yaml:"url"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// FilterConfig selects which catalog entries are mirrored.
type FilterConfig struct {
	Theme string `yaml:"theme"`
}

// CheckpointConfig locates the watermark file.
type CheckpointConfig struct {
	Path string `yaml:"path"`
}

// OutputConfig defines where processed artifacts land.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// UploadConfig defines the optional object-store mirror of output artifacts.
type UploadConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
	Enabled   bool   `yaml:"enabled"`
}

// DefaultConfig returns a configuration populated with documented defaults.
func DefaultConfig() *Config {
	return &Config{
		Mirror: MirrorConfig{
			Metastore: MetastoreConfig{
				URL:        DefaultMetastoreURL,
				TimeoutSec: DefaultTimeoutSec,
			},
			Filter: FilterConfig{
				Theme: DefaultTheme,
			},
			Checkpoint: CheckpointConfig{
				Path: DefaultCheckpointPath,
			},
			Output: OutputConfig{
				Dir: DefaultOutputDir,
			},
			Logging: LoggingConfig{
				Level:  "info",
				Format: "text",
			},
			Upload: UploadConfig{
				Region: "us-east-1",
			},
			Workers: DefaultWorkers,
		},
	}
}

// LoadConfig loads configuration from a YAML file, layered over defaults.
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Mirror.Metastore.URL == "" {
		return ErrMissingMetastoreURL
	}

	if c.Mirror.Metastore.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	if c.Mirror.Filter.Theme == "" {
		return ErrMissingTheme
	}

	if c.Mirror.Checkpoint.Path == "" {
		return ErrMissingCheckpointPath
	}

	if c.Mirror.Output.Dir == "" {
		return ErrMissingOutputDir
	}

	if c.Mirror.Workers < 1 {
		return ErrInvalidWorkers
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Mirror.Logging.Level] {
		return ErrInvalidLogLevel
	}

	if c.Mirror.Logging.Format != "text" && c.Mirror.Logging.Format != "json" {
		return ErrInvalidLogFormat
	}

	if c.Mirror.Upload.Enabled {
		if c.Mirror.Upload.Endpoint == "" {
			return ErrMissingUploadEndpoint
		}

		if c.Mirror.Upload.Bucket == "" {
			return ErrMissingUploadBucket
		}

		if c.Mirror.Upload.AccessKey == "" || c.Mirror.Upload.SecretKey == "" {
			return ErrMissingUploadKeys
		}
	}

	return nil
}

// Timeout returns the metastore HTTP timeout.
func (m *MetastoreConfig) Timeout() time.Duration {
	return time.Duration(m.TimeoutSec) * time.Second
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Metastore: %s, Theme: %s, Workers: %d, Output: %s}",
		c.Mirror.Metastore.URL,
		c.Mirror.Filter.Theme,
		c.Mirror.Workers,
		c.Mirror.Output.Dir,
	)
}
