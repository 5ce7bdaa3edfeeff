package log

import (
	"context"
	stderrors "errors"
	"log/slog"

	"github.com/felixgeelhaar/vibecoder/internal/errors"
)

// Logger provides structured logging with slog
type Logger struct {
	slog   *slog.Logger
	config Config
}

// New creates a new Logger with the given configuration
func New(config Config) *Logger {
	opts := &slog.HandlerOptions{
		Level:     config.Level.ToSlogLevel(),
		AddSource: config.AddSource,
	}

	var handler slog.Handler
	switch config.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(config.Output.Writer(), opts)
	case FormatText:
		handler = slog.NewTextHandler(config.Output.Writer(), opts)
	default:
		handler = slog.NewTextHandler(config.Output.Writer(), opts)
	}

	return &Logger{
		slog:   slog.New(handler),
		config: config,
	}
}

// Default creates a logger with default configuration
func Default() *Logger {
	return New(DefaultConfig())
}

// Development creates a logger with development configuration
func Development() *Logger {
	return New(DevelopmentConfig())
}

// With returns a new Logger with the given attributes added to all log entries
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		slog:   l.slog.With(args...),
		config: l.config,
	}
}

// WithError adds error details to the logger.
// If the error is a VibecoderError, it adds the kind, code, and cause.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}

	var verr *errors.VibecoderError
	if stderrors.As(err, &verr) {
		args := []any{
			"error", verr.Message,
			"error_kind", verr.Kind.String(),
			"error_code", string(verr.Code),
		}
		if verr.Cause != nil {
			args = append(args, "cause", verr.Cause.Error())
		}
		return l.With(args...)
	}

	return l.With("error", err.Error())
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, args ...any) {
	l.slog.Debug(msg, args...)
}

// DebugContext logs a debug message with context
func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.slog.DebugContext(ctx, msg, args...)
}

// Info logs an info message
func (l *Logger) Info(msg string, args ...any) {
	l.slog.Info(msg, args...)
}

// InfoContext logs an info message with context
func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.slog.InfoContext(ctx, msg, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, args ...any) {
	l.slog.Warn(msg, args...)
}

// Error logs an error message
func (l *Logger) Error(msg string, args ...any) {
	l.slog.Error(msg, args...)
}

// LogError logs a VibecoderError with full details
func (l *Logger) LogError(err error) {
	if err == nil {
		return
	}

	var verr *errors.VibecoderError
	if stderrors.As(err, &verr) {
		args := []any{
			"error_kind", verr.Kind.String(),
			"error_code", string(verr.Code),
			"error_message", verr.Message,
		}
		if len(verr.Suggestions) > 0 {
			args = append(args, "suggestions", verr.Suggestions)
		}
		if verr.Cause != nil {
			args = append(args, "cause", verr.Cause.Error())
		}
		l.Error("operation failed", args...)
		return
	}

	l.Error("operation failed", "error", err.Error())
}
