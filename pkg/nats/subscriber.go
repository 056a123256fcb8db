package nats

import (
	"context"
	"fmt"

	"mistral-thing-be/internal/pkg/logger"
	"mistral-thing-be/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// EventHandler is a function that processes an event.
type EventHandler func(ctx context.Context, event events.Event) error

// Subscriber handles listening for events from NATS.
type Subscriber struct {
	nc       *nats.Conn
	js       jetstream.JetStream
	logger   logger.ILogger
	contexts []jetstream.ConsumeContext
}

// NewSubscriber creates a new NATS subscriber.
func NewSubscriber(url string, log logger.ILogger) (*Subscriber, error) {
	nc, js, err := connect(url)
	if err != nil {
		return nil, err
	}
	ensureStream(js, log)
	return &Subscriber{nc: nc, js: js, logger: log}, nil
}

// Subscribe registers a handler for one event type through a durable
// consumer so nothing published while this instance was down is lost.
func (s *Subscriber) Subscribe(ctx context.Context, eventType string, durableName string, handler EventHandler) error {
	consumer, err := s.js.CreateOrUpdateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		Durable:       durableName,
		FilterSubject: Subject(eventType),
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		event, err := events.Decode(msg.Data())
		if err != nil {
			s.logger.Error("NATS", "Dropping undecodable event", map[string]interface{}{
				"subject": msg.Subject(),
				"error":   err,
			})
			_ = msg.Term()
			return
		}

		if err := handler(ctx, event); err != nil {
			s.logger.Error("NATS", "Handler failed, event will be redelivered", map[string]interface{}{
				"subject": msg.Subject(),
				"error":   err,
			})
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	s.contexts = append(s.contexts, cc)

	s.logger.Info("NATS", "Subscribed", map[string]interface{}{
		"event_type": eventType,
		"durable":    durableName,
	})
	return nil
}

// Close stops all consumers and closes the connection.
func (s *Subscriber) Close() {
	for _, cc := range s.contexts {
		cc.Stop()
	}
	if s.nc != nil {
		s.nc.Close()
	}
}
