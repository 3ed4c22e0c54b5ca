package notify

import (
	"context"
	"errors"
	"log/slog"

	"git.home.luguber.info/inful/docpublish/internal/logfields"
)

// Sink accepts operator alerts. Report returns the id operators can quote;
// callers surface it to the author.
type Sink interface {
	Report(ctx context.Context, alert Alert) (string, error)
}

// LogSink writes alerts to the structured log.
type LogSink struct {
	Logger *slog.Logger
}

// Report implements Sink.
func (s LogSink) Report(ctx context.Context, a Alert) (string, error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.ErrorContext(ctx, "Operator alert",
		slog.String("alert_id", a.ID),
		slog.String("subject", a.Subject),
		logfields.Path(a.Path),
		logfields.Stage(a.Stage),
		logfields.PublishID(a.PublishID),
		slog.String("category", a.Category),
		slog.String(logfields.KeyError, a.Error))
	return a.ID, nil
}

// MultiSink reports to every sink. The alert id is returned as long as one
// sink accepted it.
type MultiSink []Sink

// Report implements Sink.
func (m MultiSink) Report(ctx context.Context, a Alert) (string, error) {
	var (
		errs     []error
		accepted bool
	)
	for _, s := range m {
		if _, err := s.Report(ctx, a); err != nil {
			errs = append(errs, err)
			continue
		}
		accepted = true
	}
	if !accepted && len(errs) > 0 {
		return "", errors.Join(errs...)
	}
	return a.ID, nil
}
