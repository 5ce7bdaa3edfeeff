package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "https://api.vibecoder.dev", cfg.APIBaseURL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout())
	assert.Equal(t, 2*time.Second, cfg.PollInterval())
	assert.Equal(t, 180, cfg.PollMaxAttempts)
}

func TestLoadPartialFileFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_base_url: http://localhost:8000\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.APIBaseURL)
	assert.Equal(t, 2*time.Second, cfg.PollInterval(), "unset fields keep defaults")
	assert.Equal(t, 180, cfg.PollMaxAttempts)
}

func TestLoadFullFile(t *testing.T) {
	content := `api_base_url: http://localhost:8000
request_timeout_seconds: 10
poll_interval_ms: 500
poll_max_attempts: 20
log_level: debug
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.RequestTimeout())
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval())
	assert.Equal(t, 20, cfg.PollMaxAttempts)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_base_url: http://file-value\n"), 0o600))

	t.Setenv(EnvAPIBaseURL, "http://env-value")
	t.Setenv(EnvPollIntervalMs, "100")
	t.Setenv(EnvPollMaxAttempts, "7")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://env-value", cfg.APIBaseURL)
	assert.Equal(t, 100*time.Millisecond, cfg.PollInterval())
	assert.Equal(t, 7, cfg.PollMaxAttempts)
}

func TestEnvParseFailureIsReported(t *testing.T) {
	t.Setenv(EnvPollIntervalMs, "not-a-number")

	_, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvPollIntervalMs)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("poll_max_attempts: -1\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "poll_max_attempts")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	original := Default()
	original.APIBaseURL = "http://localhost:9000"
	original.PollMaxAttempts = 42
	require.NoError(t, Save(original, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", loaded.APIBaseURL)
	assert.Equal(t, 42, loaded.PollMaxAttempts)
}
