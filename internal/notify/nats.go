package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/docpublish/internal/retry"
)

// Publisher is the JetStream publish call the sink uses.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// NATSSink publishes alerts to a JetStream subject. The alert id doubles as
// the message id, so redelivered reports are deduplicated by the stream.
type NATSSink struct {
	conn    *nats.Conn
	js      Publisher
	subject string
	timeout time.Duration
	retry   retry.Policy
}

// NewNATSSink connects to url and publishes alerts on subject, retrying
// failed publishes per policy.
func NewNATSSink(url, subject string, policy retry.Policy) (*NATSSink, error) {
	conn, err := nats.Connect(url, nats.Name("docpublish-alerts"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	slog.Info("NATS alert sink initialized", "url", url, "subject", subject)
	return &NATSSink{conn: conn, js: js, subject: subject, timeout: 5 * time.Second, retry: policy}, nil
}

// NewNATSSinkWithPublisher builds a sink on an existing publisher.
func NewNATSSinkWithPublisher(js Publisher, subject string, policy retry.Policy) *NATSSink {
	return &NATSSink{js: js, subject: subject, timeout: 5 * time.Second, retry: policy}
}

// Report implements Sink.
func (s *NATSSink) Report(ctx context.Context, a Alert) (string, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("failed to marshal alert: %w", err)
	}

	// retries reuse the message id, so a publish that was stored but not
	// acknowledged is not duplicated
	err = s.retry.Do(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		_, err := s.js.Publish(ctx, s.subject, data, jetstream.WithMsgID(a.ID))
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to publish alert: %w", err)
	}
	return a.ID, nil
}

// Close closes the NATS connection.
func (s *NATSSink) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	return nil
}
