// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the structured logger shared by rigchat components.
//
// The TUI owns the terminal, so logs normally go to a file in the data
// directory rather than stderr.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/rigchat/internal/util"
)

// LogLevel names a minimum log level.
type LogLevel string

// Log levels.
const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// Config contains logger configuration options.
type Config struct {
	// Level is the minimum level to log.
	Level string
	// JSON enables JSON formatting instead of text.
	JSON bool
	// Output is where logs are written. Nil discards them.
	Output io.Writer
	// AddSource adds source file and line to each record.
	AddSource bool
}

// DefaultConfig returns text logging at info level to stderr.
func DefaultConfig() Config {
	return Config{
		Level:  string(LevelInfo),
		Output: os.Stderr,
	}
}

// Logger wraps slog for structured logging.
type Logger struct {
	*slog.Logger
	closer io.Closer
}

// ParseLevel maps a level name onto a slog level. Unknown names are info.
func ParseLevel(s string) slog.Level {
	switch LogLevel(strings.ToLower(strings.TrimSpace(s))) {
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

// New creates a logger with the given configuration.
func New(config Config) *Logger {
	if config.Output == nil {
		return &Logger{Logger: slog.New(slog.DiscardHandler)}
	}

	opts := &slog.HandlerOptions{
		Level:     ParseLevel(config.Level),
		AddSource: config.AddSource,
	}
	var handler slog.Handler
	if config.JSON {
		handler = slog.NewJSONHandler(config.Output, opts)
	} else {
		handler = slog.NewTextHandler(config.Output, opts)
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewFile creates a logger appending to path, creating its directory as
// needed. Close the logger to release the file.
func NewFile(config Config, path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), util.DirPerm); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	config.Output = f
	l := New(config)
	l.closer = f
	return l, nil
}

// Discard returns a logger that drops every record.
func Discard() *Logger {
	return New(Config{})
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// LogError logs an error with context information.
func (l *Logger) LogError(err error, msg string, args ...any) {
	l.Error(msg, append([]any{"error", err.Error()}, args...)...)
}

// WithComponent tags every record with the component name.
func (l *Logger) WithComponent(name string) *slog.Logger {
	return l.With("component", name)
}
