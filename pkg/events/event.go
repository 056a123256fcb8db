package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "THREAD_CREATED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func New(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now().UTC()}
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Envelope is the wire form of an event.
type Envelope struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func Decode(raw []byte) (BaseEvent, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return BaseEvent{}, fmt.Errorf("decode event: %w", err)
	}
	if env.Type == "" {
		return BaseEvent{}, fmt.Errorf("decode event: missing type")
	}
	if env.Data == nil {
		env.Data = map[string]interface{}{}
	}
	return BaseEvent{Type: env.Type, Data: env.Data, OccurredAt: env.OccurredAt}, nil
}

// StringField reads a string value from an event payload.
func StringField(e Event, key string) (string, bool) {
	v, ok := e.Payload()[key].(string)
	return v, ok && v != ""
}
