// Package log configures the process-wide slog default logger.
package log

import (
	"log/slog"
	"os"
)

func Setup(logLevel string) {
	var level slog.Level

	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

func WithModule(module string) *slog.Logger {
	return slog.With("module", module)
}

// WithExecution returns a logger scoped to a single node invocation.
func WithExecution(logger *slog.Logger, nodeID, nodeType, executionID string) *slog.Logger {
	return logger.With(
		"node_id", nodeID,
		"node_type", nodeType,
		"execution_id", executionID,
	)
}
