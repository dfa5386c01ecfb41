// Package logger provides leveled structured logging for the server.
//
// All output goes to stderr: stdout carries the MCP stdio transport and must
// stay clean of anything that is not protocol traffic.
package logger

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	mu      sync.Mutex
	level   = new(slog.LevelVar)
	current = newLogger(os.Stderr)
)

func newLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// SetVerbose toggles debug-level output.
func SetVerbose(verbose bool) {
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}
}

// SetOutput redirects log output. Used by tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	current = newLogger(w)
}

// Debug logs at debug level.
func Debug(msg string, args ...any) {
	mu.Lock()
	l := current
	mu.Unlock()
	l.Debug(msg, args...)
}

// Info logs at info level.
func Info(msg string, args ...any) {
	mu.Lock()
	l := current
	mu.Unlock()
	l.Info(msg, args...)
}

// Warn logs at warn level.
func Warn(msg string, args ...any) {
	mu.Lock()
	l := current
	mu.Unlock()
	l.Warn(msg, args...)
}

// Error logs at error level.
func Error(msg string, args ...any) {
	mu.Lock()
	l := current
	mu.Unlock()
	l.Error(msg, args...)
}
