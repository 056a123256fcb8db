package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"mistral-thing-be/internal/dto"
	"mistral-thing-be/internal/pkg/logger"
	"mistral-thing-be/pkg/chat/orchestrator"
	"mistral-thing-be/pkg/chat/title"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
	// Wait blocks until every job started by Consume has finished.
	Wait()
}

type Generator interface {
	Run(ctx context.Context, job orchestrator.Job) error
}

type Titler interface {
	Run(ctx context.Context, job title.Job) string
}

type StaleSettler interface {
	SettleStale(ctx context.Context, cutoff time.Time, skip func(threadId uuid.UUID) bool) (int, error)
}

type ConsumerConfig struct {
	GenerateTopic string
	TitleTopic    string
	// StaleAfter is how long a thread may sit in a generation state without
	// moving before it is failed. Zero disables the sweep.
	StaleAfter time.Duration
	SweepEvery time.Duration
}

type consumerService struct {
	subscriber message.Subscriber
	generator  Generator
	titler     Titler
	settler    StaleSettler
	isRunning  func(threadId uuid.UUID) bool
	config     ConsumerConfig
	logger     logger.ILogger

	jobs sync.WaitGroup
}

func NewConsumerService(
	subscriber message.Subscriber,
	generator Generator,
	titler Titler,
	settler StaleSettler,
	isRunning func(threadId uuid.UUID) bool,
	config ConsumerConfig,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		generator:  generator,
		titler:     titler,
		settler:    settler,
		isRunning:  isRunning,
		config:     config,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	generate, err := cs.subscriber.Subscribe(ctx, cs.config.GenerateTopic)
	if err != nil {
		return err
	}
	titles, err := cs.subscriber.Subscribe(ctx, cs.config.TitleTopic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range generate {
			cs.processGenerate(ctx, msg)
		}
	}()
	go func() {
		for msg := range titles {
			cs.processTitle(ctx, msg)
		}
	}()

	if cs.settler != nil && cs.config.StaleAfter > 0 {
		cs.sweepOnce(ctx)
		go cs.sweep(ctx)
	}
	return nil
}

func (cs *consumerService) Wait() {
	cs.jobs.Wait()
}

// spawn runs a job off the subscriber goroutine. Jobs are acked before they
// run: a generation can take minutes and a crashed one is settled by the
// stale sweep, not by redelivery.
func (cs *consumerService) spawn(kind string, threadId uuid.UUID, fn func()) {
	cs.jobs.Add(1)
	go func() {
		defer cs.jobs.Done()
		defer func() {
			if r := recover(); r != nil {
				cs.logger.Error("Consumer", "Job panicked", map[string]interface{}{
					"kind":      kind,
					"thread_id": threadId,
					"error":     fmt.Errorf("panic: %v", r),
				})
			}
		}()
		fn()
	}()
}

func (cs *consumerService) processGenerate(ctx context.Context, msg *message.Message) {
	var payload dto.GenerateJobMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("Consumer", "Failed to unmarshal generate job", map[string]interface{}{
			"message_uuid": msg.UUID,
			"error":        err,
		})
		msg.Ack()
		return
	}
	msg.Ack()

	job := orchestrator.Job{
		ThreadId: payload.ThreadId,
		UserId:   payload.UserId,
		ModelId:  payload.ModelId,
	}
	cs.spawn("generate", job.ThreadId, func() {
		if err := cs.generator.Run(ctx, job); err != nil {
			cs.logger.Warn("Consumer", "Generation ended with an error", map[string]interface{}{
				"thread_id": job.ThreadId,
				"error":     err.Error(),
			})
		}
	})
}

func (cs *consumerService) processTitle(ctx context.Context, msg *message.Message) {
	var payload dto.TitleJobMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("Consumer", "Failed to unmarshal title job", map[string]interface{}{
			"message_uuid": msg.UUID,
			"error":        err,
		})
		msg.Ack()
		return
	}
	msg.Ack()

	job := title.Job{ThreadId: payload.ThreadId, Content: payload.Content}
	cs.spawn("title", job.ThreadId, func() {
		cs.titler.Run(ctx, job)
	})
}

func (cs *consumerService) sweep(ctx context.Context) {
	every := cs.config.SweepEvery
	if every <= 0 {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cs.sweepOnce(ctx)
		}
	}
}

func (cs *consumerService) sweepOnce(ctx context.Context) {
	settled, err := cs.settler.SettleStale(ctx, time.Now().Add(-cs.config.StaleAfter), cs.isRunning)
	if err != nil {
		cs.logger.Error("Consumer", "Stale generation sweep failed", map[string]interface{}{
			"error": err,
		})
		return
	}
	if settled > 0 {
		cs.logger.Warn("Consumer", "Settled stale generations", map[string]interface{}{
			"count": settled,
		})
	}
}
