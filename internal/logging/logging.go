// Package logging configures the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Environment variable names read by Setup.
const (
	EnvEnvironment = "ENVIRONMENT"
	EnvLogLevel    = "LOG_LEVEL"
)

// Setup configures slog based on environment and installs it as the default.
// Output must not be stdout when serving MCP over stdio.
func Setup(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(os.Getenv(EnvLogLevel)),
	}

	var handler slog.Handler
	if os.Getenv(EnvEnvironment) == "prd" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel parses a log level string.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
