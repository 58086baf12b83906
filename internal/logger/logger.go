// Package logger sets up app-level structured logging on log/slog. Internal
// packages keep their component-prefixed stdlib logs; the binaries use this
// JSON logger for startup, shutdown and session-scoped records.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

type ctxKey string

const sessionIDKey ctxKey = "session_id"

// Init creates a JSON logger tagged with the service name and installs it as
// the slog default.
func Init(service string, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})

	l := slog.New(handler).With(
		slog.String("service", service),
	)
	slog.SetDefault(l)
	return l
}

// ParseLevel maps a config string to a slog level. Unknown values fall back
// to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// WithSession stores the screener session id in the context so log records
// emitted downstream can be correlated to the server-side session.
func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// SessionID extracts the session id from context. Returns "" if not set.
func SessionID(ctx context.Context) string {
	if v, ok := ctx.Value(sessionIDKey).(string); ok {
		return v
	}
	return ""
}

// SessionAttrs returns slog attributes carrying the session id from context.
// Usage: slog.Info("msg", logger.SessionAttrs(ctx)...)
func SessionAttrs(ctx context.Context) []any {
	id := SessionID(ctx)
	if id == "" {
		return nil
	}
	return []any{slog.String("session_id", id)}
}
