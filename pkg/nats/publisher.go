package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"mistral-thing-be/internal/pkg/logger"
	"mistral-thing-be/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Publisher handles sending events to the NATS bus.
type Publisher struct {
	nc *nats.Conn
	js jetstream.JetStream
}

// NewPublisher creates a new NATS publisher.
func NewPublisher(url string, log logger.ILogger) (*Publisher, error) {
	nc, js, err := connect(url)
	if err != nil {
		return nil, err
	}
	ensureStream(js, log)
	return &Publisher{nc: nc, js: js}, nil
}

// Publish sends an event to NATS. The envelope carries the type and time so
// subscribers do not have to guess them from the subject.
func (p *Publisher) Publish(ctx context.Context, event events.Event) error {
	data, err := json.Marshal(events.Envelope{
		Type:       event.EventType(),
		Data:       event.Payload(),
		OccurredAt: event.Timestamp(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	subject := Subject(event.EventType())
	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish event to subject %s: %w", subject, err)
	}
	return nil
}

// Close closes the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}
