// Package logger provides process-wide logging for resumatch.
// Debug and Info messages are only emitted in verbose mode (--verbose);
// warnings and errors are always emitted. Records are written through
// log/slog's text handler so adapters that expect a *slog.Logger can share it.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	level             = new(slog.LevelVar)
	base              = newLogger(os.Stderr)
)

func init() {
	level.Set(slog.LevelWarn)
}

func newLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	if v {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelWarn)
	}
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	base = newLogger(w)
}

// Slog returns the underlying structured logger.
func Slog() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

func logf(lvl slog.Level, format string, args ...any) {
	l := Slog()
	if !l.Enabled(context.Background(), lvl) {
		return
	}
	l.Log(context.Background(), lvl, fmt.Sprintf(format, args...))
}

// Debug logs a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	logf(slog.LevelDebug, format, args...)
}

// Info logs an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	logf(slog.LevelInfo, format, args...)
}

// Warn logs a warning. Absorbed failures (a degraded channel, a skipped chunk)
// are reported here.
func Warn(format string, args ...any) {
	logf(slog.LevelWarn, format, args...)
}

// Error logs an error.
func Error(format string, args ...any) {
	logf(slog.LevelError, format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}
