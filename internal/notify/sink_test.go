package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docpublish/internal/retry"
)

func TestNewAlertAssignsID(t *testing.T) {
	a := NewAlert("Failed to publish documentation for my-ext.", errors.New("boom"))
	b := NewAlert("x", nil)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "boom", a.Error)
	assert.Empty(t, b.Error)
}

func TestLogSinkReturnsAlertID(t *testing.T) {
	var buf bytes.Buffer
	sink := LogSink{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}
	a := NewAlert("subject", errors.New("boom"))
	a.Path = "my-ext"

	id, err := sink.Report(t.Context(), a)
	require.NoError(t, err)
	assert.Equal(t, a.ID, id)
	assert.Contains(t, buf.String(), `"alert_id":"`+a.ID+`"`)
	assert.Contains(t, buf.String(), `"path":"my-ext"`)
}

type fakePublisher struct {
	subject string
	payload []byte
	calls   int

	// failures is the number of calls that fail before one succeeds
	failures int
	err      error
}

func (f *fakePublisher) Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	f.calls++
	f.subject = subject
	f.payload = payload
	if f.calls <= f.failures {
		return nil, f.err
	}
	return &jetstream.PubAck{Stream: "ALERTS", Sequence: 1}, nil
}

var fastRetry = retry.NewPolicy(retry.BackoffFixed, time.Millisecond, time.Millisecond, 2)

func TestNATSSinkPublishesJSON(t *testing.T) {
	pub := &fakePublisher{}
	sink := NewNATSSinkWithPublisher(pub, "docpublish.alerts", fastRetry)
	a := NewAlert("subject", errors.New("boom"))

	id, err := sink.Report(t.Context(), a)
	require.NoError(t, err)
	assert.Equal(t, a.ID, id)
	assert.Equal(t, "docpublish.alerts", pub.subject)
	assert.Equal(t, 1, pub.calls)

	var got Alert
	require.NoError(t, json.Unmarshal(pub.payload, &got))
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, "boom", got.Error)
}

func TestNATSSinkRetriesTransientFailures(t *testing.T) {
	pub := &fakePublisher{failures: 2, err: errors.New("no responders")}
	sink := NewNATSSinkWithPublisher(pub, "docpublish.alerts", fastRetry)

	_, err := sink.Report(t.Context(), NewAlert("subject", nil))
	require.NoError(t, err)
	assert.Equal(t, 3, pub.calls)

	pub = &fakePublisher{failures: 5, err: errors.New("no responders")}
	sink = NewNATSSinkWithPublisher(pub, "docpublish.alerts", fastRetry)
	_, err = sink.Report(t.Context(), NewAlert("subject", nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no responders")
	assert.Equal(t, 3, pub.calls)
}

type failingSink struct{}

func (failingSink) Report(context.Context, Alert) (string, error) {
	return "", errors.New("unreachable")
}

func TestMultiSink(t *testing.T) {
	a := NewAlert("subject", nil)

	id, err := MultiSink{failingSink{}, LogSink{Logger: slog.New(slog.DiscardHandler)}}.Report(t.Context(), a)
	require.NoError(t, err)
	assert.Equal(t, a.ID, id)

	_, err = MultiSink{failingSink{}}.Report(t.Context(), a)
	assert.Error(t, err)
}
