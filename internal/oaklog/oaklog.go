// Package oaklog provides structured logging for the engine using Go's
// slog package.
package oaklog

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// RequestIDKey is the context key for the per-statement request id.
const RequestIDKey ContextKey = "request_id"

var defaultLogger *slog.Logger

func init() {
	InitLogger(LevelInfo, FormatText)
}

// Level represents a log level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Format represents a log output format.
type Format int

const (
	FormatJSON Format = iota
	FormatText
)

// InitLogger (re)initializes the global logger with the given level and format.
func InitLogger(level Level, format Format) {
	var slogLevel slog.Level
	switch level {
	case LevelDebug:
		slogLevel = slog.LevelDebug
	case LevelInfo:
		slogLevel = slog.LevelInfo
	case LevelWarn:
		slogLevel = slog.LevelWarn
	case LevelError:
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: slogLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

// GetLogger returns the global logger instance.
func GetLogger() *slog.Logger { return defaultLogger }

// NewRequestID mints a fresh per-statement request id.
func NewRequestID() string { return uuid.NewString() }

// WithRequestID attaches a request id to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request id from the context, if any.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(RequestIDKey).(string); ok {
		return v
	}
	return ""
}

// LoggerFromContext returns a logger annotated with the context's request id.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	logger := defaultLogger
	if rid := GetRequestID(ctx); rid != "" {
		logger = logger.With("request_id", rid)
	}
	return logger
}

func Debug(msg string, args ...any) { defaultLogger.Debug(msg, args...) }
func Info(msg string, args ...any)  { defaultLogger.Info(msg, args...) }
func Warn(msg string, args ...any)  { defaultLogger.Warn(msg, args...) }
func Error(msg string, args ...any) { defaultLogger.Error(msg, args...) }

// StatementExecuted logs the outcome of one statement execution.
func StatementExecuted(ctx context.Context, kind string, tables []string, rows int, d time.Duration, err error) {
	args := []any{
		"kind", kind,
		"tables", tables,
		"rows", rows,
		"duration_us", d.Microseconds(),
	}
	if err != nil {
		args = append(args, "error", err.Error())
		LoggerFromContext(ctx).Error("statement_failed", args...)
		return
	}
	LoggerFromContext(ctx).Info("statement_executed", args...)
}

// PageCorruption logs a detected on-disk page checksum mismatch.
func PageCorruption(pgno uint32, reason string) {
	defaultLogger.Error("page_corrupt", "pgno", pgno, "reason", reason)
}

// ServerStartup logs server (serve sub-command) startup information.
func ServerStartup(protocol string, addr string) {
	defaultLogger.Info("server_startup", "protocol", protocol, "addr", addr)
}

// WebSocketEvent logs a websocket connect/disconnect/error event.
func WebSocketEvent(event string, remoteAddr string, args ...any) {
	allArgs := []any{"event", event, "remote_addr", remoteAddr}
	allArgs = append(allArgs, args...)
	defaultLogger.Info("websocket_event", allArgs...)
}
