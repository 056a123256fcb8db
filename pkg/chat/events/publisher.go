// Package events publishes chat domain events to NATS.
package events

import (
	"context"
	"time"

	"mistral-thing-be/internal/constant"
	"mistral-thing-be/internal/pkg/logger"
	"mistral-thing-be/pkg/chat/orchestrator"
	pkgEvents "mistral-thing-be/pkg/events"

	"github.com/google/uuid"
)

const publishTimeout = 5 * time.Second

// Sink is the part of the NATS publisher used here.
type Sink interface {
	Publish(ctx context.Context, event pkgEvents.Event) error
}

// Publisher abstracts event publishing for chat operations.
type Publisher interface {
	PublishThreadCreated(ctx context.Context, threadId, userId uuid.UUID, modelId string)
	PublishThreadDeleted(ctx context.Context, threadId, userId uuid.UUID)
	PublishMessageSent(ctx context.Context, threadId, userId, messageId uuid.UUID, firstTurn bool)
}

// NatsPublisher implements Publisher over a NATS sink. A nil sink turns
// every call into a no-op so the API runs without a broker.
type NatsPublisher struct {
	sink   Sink
	logger logger.ILogger
}

var _ orchestrator.Observer = (*NatsPublisher)(nil)

func NewNatsPublisher(sink Sink, log logger.ILogger) *NatsPublisher {
	return &NatsPublisher{sink: sink, logger: log}
}

func (p *NatsPublisher) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if p.sink == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := p.sink.Publish(ctx, pkgEvents.New(eventType, data)); err != nil {
		p.logger.Error("EVENTS", "Failed to publish "+eventType+" event", map[string]interface{}{"error": err.Error()})
	}
}

func (p *NatsPublisher) PublishThreadCreated(ctx context.Context, threadId, userId uuid.UUID, modelId string) {
	p.publish(ctx, constant.EventThreadCreated, map[string]interface{}{
		"thread_id": threadId.String(),
		"user_id":   userId.String(),
		"model_id":  modelId,
	})
}

func (p *NatsPublisher) PublishThreadDeleted(ctx context.Context, threadId, userId uuid.UUID) {
	p.publish(ctx, constant.EventThreadDeleted, map[string]interface{}{
		"thread_id": threadId.String(),
		"user_id":   userId.String(),
	})
}

func (p *NatsPublisher) PublishMessageSent(ctx context.Context, threadId, userId, messageId uuid.UUID, firstTurn bool) {
	p.publish(ctx, constant.EventMessageSent, map[string]interface{}{
		"thread_id":  threadId.String(),
		"user_id":    userId.String(),
		"message_id": messageId.String(),
		"first_turn": firstTurn,
	})
}

func (p *NatsPublisher) GenerationStarted(job orchestrator.Job) {}

func (p *NatsPublisher) DeltaPersisted(job orchestrator.Job) {}

// GenerationFinished reports completed and failed generations. Stops and
// deleted threads are not domain events.
func (p *NatsPublisher) GenerationFinished(job orchestrator.Job, outcome orchestrator.Outcome, elapsed time.Duration, outputTokens int) {
	data := map[string]interface{}{
		"thread_id":   job.ThreadId.String(),
		"user_id":     job.UserId.String(),
		"model_id":    job.ModelId,
		"duration_ms": elapsed.Milliseconds(),
	}

	switch outcome {
	case orchestrator.OutcomeCompleted:
		data["output_tokens"] = outputTokens
		p.publish(context.Background(), constant.EventGenerationCompleted, data)
	case orchestrator.OutcomeFailed:
		p.publish(context.Background(), constant.EventGenerationFailed, data)
	}
}
