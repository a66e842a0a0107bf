package slogx

import (
	"context"
	"log/slog"
)

// loggerKey is unexported so only this package can install a logger.
type loggerKey struct{}

// WithContext returns ctx carrying logger for later FromContext calls.
func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the request-scoped logger, falling back to the
// process default so callers never receive nil.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// WithRequestID derives a child logger tagged with the request id and
// stores it back in the context.
func WithRequestID(ctx context.Context, reqID string) context.Context {
	return WithContext(ctx, FromContext(ctx).With("req_id", reqID))
}
