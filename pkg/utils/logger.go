// Shared logging setup
package utils

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	logger   *slog.Logger
	initOnce sync.Once
)

// InitLogger configures the process-wide slog logger. Level comes from
// FLOWBABY_LOG_LEVEL (debug, info, warn, error); default is info.
func InitLogger() {
	initOnce.Do(func() {
		level := slog.LevelInfo
		switch strings.ToLower(strings.TrimSpace(os.Getenv("FLOWBABY_LOG_LEVEL"))) {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}

		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
	})
}

// GetLogger returns the shared logger, initializing it on first use.
func GetLogger() *slog.Logger {
	if logger == nil {
		InitLogger()
	}
	return logger
}
