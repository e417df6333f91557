// Package config provides configuration for the council client: an optional
// YAML file layered under environment variables, environment winning.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the client.
type Config struct {
	// Backend settings
	ServerURL      string        `yaml:"server_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// Streaming: no timeout is applied to an open turn stream; a council
	// turn can legitimately run for minutes. Cancellation is the ceiling.
	StreamHeaderTimeout time.Duration `yaml:"stream_header_timeout"`

	// Upload limits, enforced client-side before any network call.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
	MaxUploadBatch int   `yaml:"max_upload_batch"`

	// Export
	ExportDir string `yaml:"export_dir"`

	// Logging
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	// Debug listener for /metrics and /healthz; empty disables it.
	MetricsAddr string `yaml:"metrics_addr"`

	// Tracing
	TracingEnabled  bool   `yaml:"tracing_enabled"`
	TracingEndpoint string `yaml:"tracing_endpoint"`
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "council", "config.yaml")
}

// Load builds configuration from defaults, then the YAML file at path (if it
// exists), then environment variables. A missing file is not an error; a
// malformed one is.
func Load(path string) (*Config, error) {
	cfg := &Config{
		ServerURL:           "http://localhost:8001",
		RequestTimeout:      30 * time.Second,
		StreamHeaderTimeout: 30 * time.Second,
		MaxUploadBytes:      25 * 1024 * 1024,
		MaxUploadBatch:      10,
		ExportDir:           ".",
		LogLevel:            "info",
		LogFile:             "",
		MetricsAddr:         "",
		TracingEnabled:      false,
		TracingEndpoint:     "localhost:4318",
	}

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.loadEnv()

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() {
	c.ServerURL = getEnv("COUNCIL_SERVER_URL", c.ServerURL)
	c.RequestTimeout = getDurationEnv("COUNCIL_REQUEST_TIMEOUT", c.RequestTimeout)
	c.StreamHeaderTimeout = getDurationEnv("COUNCIL_STREAM_HEADER_TIMEOUT", c.StreamHeaderTimeout)
	c.MaxUploadBytes = getInt64Env("COUNCIL_MAX_UPLOAD_BYTES", c.MaxUploadBytes)
	c.MaxUploadBatch = getIntEnv("COUNCIL_MAX_UPLOAD_BATCH", c.MaxUploadBatch)
	c.ExportDir = getEnv("COUNCIL_EXPORT_DIR", c.ExportDir)
	c.LogLevel = getEnv("COUNCIL_LOG_LEVEL", c.LogLevel)
	c.LogFile = getEnv("COUNCIL_LOG_FILE", c.LogFile)
	c.MetricsAddr = getEnv("COUNCIL_METRICS_ADDR", c.MetricsAddr)
	c.TracingEnabled = getBoolEnv("COUNCIL_TRACING_ENABLED", c.TracingEnabled)
	c.TracingEndpoint = getEnv("COUNCIL_TRACING_ENDPOINT", c.TracingEndpoint)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
