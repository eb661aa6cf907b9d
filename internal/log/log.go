// Package log wraps log/slog with a process-wide logger that every other
// package shares. Output is logfmt on stdout with ts/level/msg keys.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

var (
	levelVar = new(slog.LevelVar)
	loggerMu sync.RWMutex
	logger   = slog.New(newHandler(os.Stdout))
)

func init() {
	levelVar.Set(slog.LevelInfo)
}

func newHandler(w io.Writer) slog.Handler {
	opts := slog.HandlerOptions{
		Level: levelVar,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.TimeKey:
				attr.Key = "ts"
				if attr.Value.Kind() == slog.KindTime {
					attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(time.RFC3339Nano))
				}
			case slog.LevelKey:
				attr.Key = "level"
				attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
			case slog.MessageKey:
				attr.Key = "msg"
			}
			return attr
		},
	}
	return slog.NewTextHandler(w, &opts)
}

// SetLevel adjusts the minimum level the global logger emits. Accepted values
// are "debug", "info", "warn" and "error", case-insensitively; an empty value
// keeps the info default.
func SetLevel(level string) error {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		levelVar.Set(slog.LevelInfo)
	case "debug":
		levelVar.Set(slog.LevelDebug)
	case "warn", "warning":
		levelVar.Set(slog.LevelWarn)
	case "error":
		levelVar.Set(slog.LevelError)
	default:
		return fmt.Errorf("unknown log level: %s", level)
	}
	return nil
}

// Logger returns the shared slog.Logger.
func Logger() *slog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

// ReplaceLogger swaps in a different slog.Logger, typically one writing to a
// buffer under test.
func ReplaceLogger(l *slog.Logger) {
	if l == nil {
		panic("log: nil logger provided")
	}
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = l
}

// Debug logs at debug level through the shared logger.
func Debug(ctx context.Context, msg string, args ...any) {
	Logger().DebugContext(ensureContext(ctx), msg, args...)
}

// Info logs at info level through the shared logger.
func Info(ctx context.Context, msg string, args ...any) {
	Logger().InfoContext(ensureContext(ctx), msg, args...)
}

// Warn logs at warn level through the shared logger.
func Warn(ctx context.Context, msg string, args ...any) {
	Logger().WarnContext(ensureContext(ctx), msg, args...)
}

// Error logs at error level through the shared logger.
func Error(ctx context.Context, msg string, args ...any) {
	Logger().ErrorContext(ensureContext(ctx), msg, args...)
}

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// Sync flushes buffered entries when the installed handler supports it. The
// default text handler writes straight to stdout, so this is usually a no-op.
func Sync() error {
	type syncer interface {
		Sync() error
	}
	if s, ok := Logger().Handler().(syncer); ok {
		return s.Sync()
	}
	return nil
}
