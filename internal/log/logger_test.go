package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/felixgeelhaar/vibecoder/internal/errors"
)

func newBufferLogger(level Level, format Format) (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logger := New(Config{
		Level:  level,
		Format: format,
		Output: NewOutput(buf),
	})
	return logger, buf
}

func TestLoggerLevels(t *testing.T) {
	logger, buf := newBufferLogger(LevelWarn, FormatText)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("messages below WARN should be suppressed, got %q", out)
	}
	if !strings.Contains(out, "warn message") || !strings.Contains(out, "error message") {
		t.Errorf("WARN and ERROR should be logged, got %q", out)
	}
}

func TestLoggerJSONFormat(t *testing.T) {
	logger, buf := newBufferLogger(LevelInfo, FormatJSON)

	logger.Info("job submitted", "job_id", "abc-123")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry["msg"] != "job submitted" {
		t.Errorf("msg = %v, want 'job submitted'", entry["msg"])
	}
	if entry["job_id"] != "abc-123" {
		t.Errorf("job_id = %v, want abc-123", entry["job_id"])
	}
}

func TestWithErrorAddsTaxonomyFields(t *testing.T) {
	logger, buf := newBufferLogger(LevelInfo, FormatJSON)

	err := errors.NewPollTimeoutError(180)
	logger.WithError(err).Info("execution aborted")

	var entry map[string]any
	if jsonErr := json.Unmarshal(buf.Bytes(), &entry); jsonErr != nil {
		t.Fatalf("output is not valid JSON: %v", jsonErr)
	}
	if entry["error_kind"] != "timeout" {
		t.Errorf("error_kind = %v, want timeout", entry["error_kind"])
	}
	if entry["error_code"] != "TIMEOUT-001" {
		t.Errorf("error_code = %v, want TIMEOUT-001", entry["error_code"])
	}
}

func TestLogErrorPlain(t *testing.T) {
	logger, buf := newBufferLogger(LevelInfo, FormatText)

	logger.LogError(errTest{})

	if !strings.Contains(buf.String(), "plain failure") {
		t.Errorf("plain error message should appear, got %q", buf.String())
	}
}

type errTest struct{}

func (errTest) Error() string { return "plain failure" }

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warning", LevelWarn},
		{"ERROR", LevelError},
		{"bogus", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDefaultLoggerFallback(t *testing.T) {
	SetDefaultLogger(nil)
	t.Cleanup(func() { SetDefaultLogger(nil) })
	if DefaultLogger() == nil {
		t.Fatal("DefaultLogger() must never return nil")
	}
}

func TestLevelFromEnv(t *testing.T) {
	t.Setenv(EnvLevel, "")
	if got := LevelFromEnv(LevelWarn); got != LevelWarn {
		t.Errorf("unset %s should use fallback, got %v", EnvLevel, got)
	}

	t.Setenv(EnvLevel, "debug")
	if got := LevelFromEnv(LevelWarn); got != LevelDebug {
		t.Errorf("LevelFromEnv = %v, want %v", got, LevelDebug)
	}
}

func TestDefaultLoggerHonorsEnvLevel(t *testing.T) {
	SetDefaultLogger(nil)
	t.Cleanup(func() { SetDefaultLogger(nil) })
	t.Setenv(EnvLevel, "debug")

	logger := DefaultLogger()
	if logger.config.Level != LevelDebug {
		t.Errorf("lazy default logger level = %v, want %v", logger.config.Level, LevelDebug)
	}
}
