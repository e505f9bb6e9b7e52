package logger

import (
	"io"
	"log/slog"
	"os"
	"time"
)

// NewSlogLogger creates a standalone JSON logger writing to writer.
// Use it in tests and before the central logger is configured.
func NewSlogLogger(writer io.Writer, level LogLevel, timezone *time.Location) Logger {
	if writer == nil {
		writer = os.Stdout
	}
	if timezone == nil {
		timezone = time.UTC
	}

	slogLevel := parseSlogLevel(level)
	return &moduleLogger{
		logger: slog.New(newJSONHandler(writer, slogLevel, timezone)),
		level:  slogLevel,
	}
}

// NewConsoleLogger creates a text logger on stdout for bootstrap output.
func NewConsoleLogger(module string, level LogLevel) Logger {
	slogLevel := parseSlogLevel(level)
	return &moduleLogger{
		module: module,
		logger: slog.New(newTextHandler(os.Stdout, slogLevel)),
		level:  slogLevel,
	}
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() Logger {
	return NewSlogLogger(io.Discard, LogLevelError, time.UTC)
}
