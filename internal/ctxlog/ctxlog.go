// Package ctxlog carries the run's slog.Logger through context.Context, so
// the engine, handlers and HTTP middleware all log with the same run and
// node attributes.
package ctxlog

import (
	"context"
	"log/slog"
)

type key struct{}

var loggerKey = key{}

// discard is returned when no logger was attached, which keeps the engine
// silent when embedded without logging configured.
var discard = slog.New(slog.DiscardHandler)

// WithLogger returns a context carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger attached to ctx, or a logger that discards
// everything.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return discard
}

// With returns a context whose logger carries the given attributes on every
// record, e.g. ctxlog.With(ctx, "node_id", id).
func With(ctx context.Context, args ...any) context.Context {
	return WithLogger(ctx, FromContext(ctx).With(args...))
}
