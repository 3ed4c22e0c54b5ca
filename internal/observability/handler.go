package observability

import (
	"context"
	"log/slog"
)

// ContextHandler adds the correlation ids found in the record's context to
// every record. Keys the caller already set, on the record or through
// Logger.With, are not repeated.
type ContextHandler struct {
	inner slog.Handler
	// keys set through WithAttrs outside any group
	preset map[string]struct{}
	group  bool
}

// NewContextHandler wraps h. Wrapping a ContextHandler returns it unchanged.
func NewContextHandler(h slog.Handler) *ContextHandler {
	if ch, ok := h.(*ContextHandler); ok {
		return ch
	}
	return &ContextHandler{inner: h}
}

// Enabled implements slog.Handler.
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	attrs := Attrs(ctx)
	if len(attrs) == 0 {
		return h.inner.Handle(ctx, r)
	}
	seen := make(map[string]struct{}, r.NumAttrs())
	if !h.group {
		r.Attrs(func(a slog.Attr) bool {
			seen[a.Key] = struct{}{}
			return true
		})
	}
	r = r.Clone()
	for _, a := range attrs {
		if _, ok := h.preset[a.Key]; ok {
			continue
		}
		if _, ok := seen[a.Key]; ok {
			continue
		}
		r.AddAttrs(a)
	}
	return h.inner.Handle(ctx, r)
}

// WithAttrs implements slog.Handler.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	preset := h.preset
	if !h.group {
		preset = make(map[string]struct{}, len(h.preset)+len(attrs))
		for k := range h.preset {
			preset[k] = struct{}{}
		}
		for _, a := range attrs {
			preset[a.Key] = struct{}{}
		}
	}
	return &ContextHandler{inner: h.inner.WithAttrs(attrs), preset: preset, group: h.group}
}

// WithGroup implements slog.Handler.
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &ContextHandler{inner: h.inner.WithGroup(name), preset: h.preset, group: true}
}
