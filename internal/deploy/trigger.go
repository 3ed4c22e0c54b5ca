// Package deploy notifies the documentation site build that an extension was
// republished.
package deploy

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/docpublish/internal/logfields"
)

// Result is what the build system answered.
type Result struct {
	Status int
	ETag   string
}

// Trigger requests a rebuild of the site for one extension path.
type Trigger interface {
	Trigger(ctx context.Context, path string) (Result, error)
}

// NoopTrigger logs and does nothing. Used when no deploy target is configured.
type NoopTrigger struct {
	Logger *slog.Logger
}

// Trigger implements Trigger.
func (n NoopTrigger) Trigger(ctx context.Context, path string) (Result, error) {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.DebugContext(ctx, "Deploy trigger disabled, skipping rebuild", logfields.Path(path))
	return Result{}, nil
}
