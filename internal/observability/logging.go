// Package observability carries request and publish correlation ids through
// context.Context into every log record.
package observability

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/docpublish/internal/logfields"
)

// LogContext holds the correlation ids attached to log records.
type LogContext struct {
	RequestID string
	PublishID string
	Owner     string
}

type logContextKeyType string

const logContextKey logContextKeyType = "log-context"

// WithRequestID adds the HTTP request id to the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	lc := extractLogContext(ctx)
	lc.RequestID = id
	return context.WithValue(ctx, logContextKey, lc)
}

// WithPublishID adds a publish id to the context.
func WithPublishID(ctx context.Context, id string) context.Context {
	lc := extractLogContext(ctx)
	lc.PublishID = id
	return context.WithValue(ctx, logContextKey, lc)
}

// WithOwner adds the authenticated caller id to the context.
func WithOwner(ctx context.Context, owner string) context.Context {
	lc := extractLogContext(ctx)
	lc.Owner = owner
	return context.WithValue(ctx, logContextKey, lc)
}

func extractLogContext(ctx context.Context) LogContext {
	if ctx == nil {
		return LogContext{}
	}
	if lc, ok := ctx.Value(logContextKey).(LogContext); ok {
		return lc
	}
	return LogContext{}
}

// GetContext returns the structured log context from the provided context.
func GetContext(ctx context.Context) LogContext {
	return extractLogContext(ctx)
}

// Attrs returns the non-empty correlation ids of ctx as slog attributes.
func Attrs(ctx context.Context) []slog.Attr {
	lc := extractLogContext(ctx)
	attrs := make([]slog.Attr, 0, 3)
	if lc.RequestID != "" {
		attrs = append(attrs, logfields.RequestID(lc.RequestID))
	}
	if lc.PublishID != "" {
		attrs = append(attrs, logfields.PublishID(lc.PublishID))
	}
	if lc.Owner != "" {
		attrs = append(attrs, logfields.Owner(lc.Owner))
	}
	return attrs
}
