package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	pserrors "git.home.luguber.info/inful/pagesmith/internal/errors"
)

const flushTimeout = 5 * time.Second

// NATSPublisher publishes build events as JSON on a NATS subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher connects to url. An empty subject means DefaultSubject.
// Errors carry warning severity: a build never fails because of notification.
func NewNATSPublisher(url, subject string, opts ...nats.Option) (*NATSPublisher, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	opts = append([]nats.Option{nats.Name("pagesmith")}, opts...)
	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, pserrors.WrapError(err, pserrors.CategoryRuntime, "failed to connect to NATS").
			WithContext("url", url).
			WithRetry(pserrors.RetryBackoff).
			Warning().
			Build()
	}
	slog.Debug("NATS publisher connected", "url", url, "subject", subject)
	return &NATSPublisher{conn: conn, subject: subject}, nil
}

// Publish sends ev and waits for the server to acknowledge the flush.
func (p *NATSPublisher) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return pserrors.InternalError("failed to marshal build event").WithCause(err).Build()
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return p.publishError(err)
	}

	ctx, cancel := context.WithTimeout(ctx, flushTimeout)
	defer cancel()
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return p.publishError(err)
	}
	slog.Debug("Published build event", "subject", p.subject, "build_id", ev.BuildID, "status", ev.Status)
	return nil
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}

func (p *NATSPublisher) publishError(err error) error {
	return pserrors.WrapError(err, pserrors.CategoryRuntime, "failed to publish build event").
		WithContext("subject", p.subject).
		WithRetry(pserrors.RetryBackoff).
		Warning().
		Build()
}
