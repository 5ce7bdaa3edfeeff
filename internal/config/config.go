// Package config loads and persists the vibecoder configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/vibecoder/internal/log"
)

// Environment variables that override file values.
const (
	EnvAPIBaseURL            = "VIBECODER_API_URL"
	EnvRequestTimeoutSeconds = "VIBECODER_REQUEST_TIMEOUT_SECONDS"
	EnvPollIntervalMs        = "VIBECODER_POLL_INTERVAL_MS"
	EnvPollMaxAttempts       = "VIBECODER_POLL_MAX_ATTEMPTS"
	EnvRedirectURI           = "VIBECODER_REDIRECT_URI"
	EnvLogLevel              = log.EnvLevel
)

// Config is the persisted configuration, ~/.vibecoder/config.yaml by
// default. Times are plain integers with the unit in the field name so the
// file stays hand-editable.
type Config struct {
	APIBaseURL            string `yaml:"api_base_url"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds,omitempty"`
	PollIntervalMs        int    `yaml:"poll_interval_ms,omitempty"`
	PollMaxAttempts       int    `yaml:"poll_max_attempts,omitempty"`
	RedirectURI           string `yaml:"redirect_uri,omitempty"`
	LogLevel              string `yaml:"log_level,omitempty"`
}

// RequestTimeout returns the HTTP request timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// PollInterval returns the pause between job progress checks as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		APIBaseURL:            "https://api.vibecoder.dev",
		RequestTimeoutSeconds: 30,
		PollIntervalMs:        2000,
		PollMaxAttempts:       180,
		RedirectURI:           "vibecoder://oauth-success",
		LogLevel:              "info",
	}
}

// DefaultPath is the config file location, ~/.vibecoder/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".vibecoder", "config.yaml"), nil
}

// Load reads the config file at path, fills unset fields with defaults, and
// applies environment overrides. A missing file is not an error; defaults
// plus environment apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
		cfg.fillDefaults()
	case os.IsNotExist(err):
		// Defaults apply.
	default:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes the config to path, creating the directory if needed.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks field values after defaults and overrides are applied.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("api_base_url is required")
	}
	if c.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("request_timeout_seconds must be positive")
	}
	if c.PollIntervalMs <= 0 {
		return fmt.Errorf("poll_interval_ms must be positive")
	}
	if c.PollMaxAttempts <= 0 {
		return fmt.Errorf("poll_max_attempts must be positive")
	}
	return nil
}

// fillDefaults restores defaults for fields a partial file left at zero.
func (c *Config) fillDefaults() {
	def := Default()
	if c.APIBaseURL == "" {
		c.APIBaseURL = def.APIBaseURL
	}
	if c.RequestTimeoutSeconds == 0 {
		c.RequestTimeoutSeconds = def.RequestTimeoutSeconds
	}
	if c.PollIntervalMs == 0 {
		c.PollIntervalMs = def.PollIntervalMs
	}
	if c.PollMaxAttempts == 0 {
		c.PollMaxAttempts = def.PollMaxAttempts
	}
	if c.RedirectURI == "" {
		c.RedirectURI = def.RedirectURI
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvAPIBaseURL); v != "" {
		c.APIBaseURL = v
	}
	if v := os.Getenv(EnvRedirectURI); v != "" {
		c.RedirectURI = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	intVars := []struct {
		env  string
		dest *int
	}{
		{EnvRequestTimeoutSeconds, &c.RequestTimeoutSeconds},
		{EnvPollIntervalMs, &c.PollIntervalMs},
		{EnvPollMaxAttempts, &c.PollMaxAttempts},
	}
	for _, iv := range intVars {
		v := os.Getenv(iv.env)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", iv.env, err)
		}
		*iv.dest = n
	}
	return nil
}
