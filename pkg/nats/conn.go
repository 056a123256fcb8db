package nats

import (
	"context"
	"fmt"
	"time"

	"mistral-thing-be/internal/pkg/logger"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	StreamName    = "EVENTS"
	subjectPrefix = "events."
)

// Subject maps an event type onto its JetStream subject.
func Subject(eventType string) string {
	return subjectPrefix + eventType
}

func connect(url string) (*nats.Conn, jetstream.JetStream, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}
	return nc, js, nil
}

// ensureStream creates the EVENTS stream if it is missing. Failure is only
// logged: the stream may already exist or the server may still be starting.
func ensureStream(js jetstream.JetStream, log logger.ILogger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{subjectPrefix + ">"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.WorkQueuePolicy,
	})
	if err != nil {
		log.Warn("NATS", "Failed to ensure stream", map[string]interface{}{
			"stream": StreamName,
			"error":  err.Error(),
		})
	}
}
