package log

import (
	"sync"
)

var (
	defaultLogger *Logger
	loggerMu      sync.RWMutex
)

// SetDefaultLogger installs the process-wide logger. The CLI calls this
// once during startup after config loading resolves the level; everything
// downstream (API client, workflow, poller) reads DefaultLogger.
func SetDefaultLogger(logger *Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	defaultLogger = logger
}

// DefaultLogger returns the process-wide logger. Before the CLI has
// installed one it builds a stderr text logger at the level named by
// VIBECODER_LOG_LEVEL, so early failures (config parse, flag errors) are
// still loggable at the requested verbosity.
func DefaultLogger() *Logger {
	loggerMu.RLock()
	if defaultLogger != nil {
		defer loggerMu.RUnlock()
		return defaultLogger
	}
	loggerMu.RUnlock()

	cfg := DefaultConfig()
	cfg.Level = LevelFromEnv(cfg.Level)
	logger := New(cfg)
	SetDefaultLogger(logger)
	return logger
}
