package log

import (
	"log/slog"
	"os"
)

// EnvLevel overrides the configured log level for the whole process.
// It is read both by config loading and by the lazy default logger, so
// components that log before the CLI wires a logger still honor it.
const EnvLevel = "VIBECODER_LOG_LEVEL"

// Level represents the severity of a log message.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ToSlogLevel converts the Level to its slog equivalent.
func (l Level) ToSlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel parses a level name. Unknown names fall back to info so a
// typo in config or env never silences or floods the output.
func ParseLevel(s string) Level {
	switch s {
	case "debug", "DEBUG":
		return LevelDebug
	case "info", "INFO":
		return LevelInfo
	case "warn", "WARN", "warning", "WARNING":
		return LevelWarn
	case "error", "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// LevelFromEnv returns the level named by EnvLevel, or fallback when the
// variable is unset or empty.
func LevelFromEnv(fallback Level) Level {
	v := os.Getenv(EnvLevel)
	if v == "" {
		return fallback
	}
	return ParseLevel(v)
}
