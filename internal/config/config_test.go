package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8001", cfg.ServerURL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, int64(25*1024*1024), cfg.MaxUploadBytes)
	assert.Equal(t, 10, cfg.MaxUploadBatch)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.MetricsAddr)
	assert.False(t, cfg.TracingEnabled)
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8001", cfg.ServerURL)
}

func TestLoadMalformedFileIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server_url: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"server_url: http://council.internal:9000\n"+
			"request_timeout: 45s\n"+
			"max_upload_batch: 3\n"+
			"log_level: debug\n"+
			"tracing_enabled: true\n",
	), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://council.internal:9000", cfg.ServerURL)
	assert.Equal(t, 45*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 3, cfg.MaxUploadBatch)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.TracingEnabled)
	// Untouched keys keep their defaults.
	assert.Equal(t, int64(25*1024*1024), cfg.MaxUploadBytes)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server_url: http://from-file:1\n"), 0o644))

	t.Setenv("COUNCIL_SERVER_URL", "http://from-env:2")
	t.Setenv("COUNCIL_MAX_UPLOAD_BYTES", "1048576")
	t.Setenv("COUNCIL_STREAM_HEADER_TIMEOUT", "2m")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://from-env:2", cfg.ServerURL)
	assert.Equal(t, int64(1048576), cfg.MaxUploadBytes)
	assert.Equal(t, 2*time.Minute, cfg.StreamHeaderTimeout)
}

func TestEnvIgnoresUnparsableValues(t *testing.T) {
	t.Setenv("COUNCIL_MAX_UPLOAD_BATCH", "lots")
	t.Setenv("COUNCIL_TRACING_ENABLED", "maybe")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.MaxUploadBatch)
	assert.False(t, cfg.TracingEnabled)
}
