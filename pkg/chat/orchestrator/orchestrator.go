// Package orchestrator runs one assistant generation for a thread: it moves
// the thread through submitted and streaming, fills a pending assistant
// message from the completion stream and settles on ready or error.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"mistral-thing-be/internal/constant"
	"mistral-thing-be/internal/entity"
	"mistral-thing-be/internal/pkg/logger"
	"mistral-thing-be/internal/repository/contract"
	"mistral-thing-be/pkg/llm"

	"github.com/google/uuid"
)

const finalizeTimeout = 10 * time.Second

var ErrGenerationTimeout = errors.New("generation exceeded its deadline")

// Job is the payload of one generation request.
type Job struct {
	ThreadId uuid.UUID `json:"thread_id"`
	UserId   uuid.UUID `json:"user_id"`
	ModelId  string    `json:"model_id"`
}

// Store is the narrow persistence surface the orchestrator writes through.
// Writes against a deleted thread or message return contract.ErrGone and
// must never recreate rows.
type Store interface {
	UpdateThreadStatus(ctx context.Context, threadId uuid.UUID, status entity.ThreadStatus) error
	InsertPendingMessage(ctx context.Context, threadId uuid.UUID) (*entity.Message, error)
	PatchMessage(ctx context.Context, messageId uuid.UUID, content string, isStreaming bool) error
	// ListHistory returns the finalized messages of a thread in seq order.
	ListHistory(ctx context.Context, threadId uuid.UUID) ([]*entity.Message, error)
}

type Config struct {
	IdleTimeout       time.Duration
	GenerationTimeout time.Duration
	FlushInterval     time.Duration
	FlushBytes        int
}

type Orchestrator struct {
	store    Store
	provider llm.LLMProvider
	registry *Registry
	observer Observer
	logger   logger.ILogger
	config   Config
}

func New(store Store, provider llm.LLMProvider, registry *Registry, observer Observer, log logger.ILogger, cfg Config) *Orchestrator {
	if observer == nil {
		observer = Observers{}
	}
	return &Orchestrator{
		store:    store,
		provider: provider,
		registry: registry,
		observer: observer,
		logger:   log,
		config:   cfg,
	}
}

// Run performs one generation. Failures inside the generation are settled
// into the thread (status error plus a fixed message) and also returned for
// logging; a deleted thread or a user stop returns nil.
func (o *Orchestrator) Run(ctx context.Context, job Job) error {
	started := time.Now()

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	if o.config.GenerationTimeout > 0 {
		var stop context.CancelFunc
		ctx, stop = context.WithTimeoutCause(ctx, o.config.GenerationTimeout, ErrGenerationTimeout)
		defer stop()
	}

	release := o.registry.Register(job.ThreadId, cancel)
	defer release()

	o.observer.GenerationStarted(job)
	outcome, tokens, err := o.run(ctx, job)
	o.observer.GenerationFinished(job, outcome, time.Since(started), tokens)
	return err
}

func (o *Orchestrator) run(ctx context.Context, job Job) (Outcome, int, error) {
	if err := o.store.UpdateThreadStatus(ctx, job.ThreadId, entity.ThreadStatusSubmitted); err != nil {
		return o.abort(ctx, job, err)
	}

	pending, err := o.store.InsertPendingMessage(ctx, job.ThreadId)
	if err != nil {
		return o.abort(ctx, job, err)
	}

	content, err := o.stream(ctx, job, pending.Id)
	if err != nil {
		return o.fail(ctx, job, pending.Id, err)
	}

	if err := o.store.PatchMessage(ctx, pending.Id, content, false); err != nil {
		return o.fail(ctx, job, pending.Id, err)
	}
	if err := o.store.UpdateThreadStatus(ctx, job.ThreadId, entity.ThreadStatusReady); err != nil {
		return o.fail(ctx, job, pending.Id, err)
	}

	tokens := llm.EstimateTokens(content)
	o.logger.Info("Orchestrator", "Generation completed", map[string]interface{}{
		"thread_id":     job.ThreadId,
		"message_id":    pending.Id,
		"model_id":      job.ModelId,
		"output_tokens": tokens,
	})
	return OutcomeCompleted, tokens, nil
}

func (o *Orchestrator) stream(ctx context.Context, job Job, pendingId uuid.UUID) (string, error) {
	if err := o.store.UpdateThreadStatus(ctx, job.ThreadId, entity.ThreadStatusStreaming); err != nil {
		return "", err
	}

	rows, err := o.store.ListHistory(ctx, job.ThreadId)
	if err != nil {
		return "", fmt.Errorf("load history: %w", err)
	}
	history := make([]llm.Message, 0, len(rows))
	for _, m := range rows {
		if m.IsStreaming || m.Id == pendingId {
			continue
		}
		history = append(history, llm.Message{Role: string(m.Role), Content: m.Content})
	}

	o.logger.Debug("Orchestrator", "Opening completion stream", map[string]interface{}{
		"thread_id":    job.ThreadId,
		"model_id":     job.ModelId,
		"messages":     len(history),
		"input_tokens": llm.EstimateHistoryTokens(history),
	})

	s, err := o.provider.StreamChat(ctx, history, llm.WithModel(job.ModelId))
	if err != nil {
		return "", err
	}
	s = llm.WithIdleTimeout(s, o.config.IdleTimeout)
	defer s.Close()

	var acc strings.Builder
	flush := newFlusher(o.config.FlushInterval, o.config.FlushBytes)
	for {
		if ctx.Err() != nil {
			return acc.String(), context.Cause(ctx)
		}

		delta, err := s.Recv()
		if errors.Is(err, io.EOF) {
			return acc.String(), nil
		}
		if err != nil {
			return acc.String(), err
		}
		if delta == "" {
			continue
		}

		acc.WriteString(delta)
		if !flush.due(len(delta)) {
			continue
		}
		if err := o.store.PatchMessage(ctx, pendingId, acc.String(), true); err != nil {
			return acc.String(), err
		}
		o.observer.DeltaPersisted(job)
	}
}

// abort handles failures before a pending message exists.
func (o *Orchestrator) abort(ctx context.Context, job Job, cause error) (Outcome, int, error) {
	if errors.Is(cause, contract.ErrGone) {
		o.logger.Info("Orchestrator", "Thread removed before generation started", map[string]interface{}{
			"thread_id": job.ThreadId,
		})
		return OutcomeAbandoned, 0, nil
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()
	if err := o.store.UpdateThreadStatus(writeCtx, job.ThreadId, entity.ThreadStatusError); err != nil && !errors.Is(err, contract.ErrGone) {
		o.logger.Error("Orchestrator", "Failed to mark thread as errored", map[string]interface{}{
			"thread_id": job.ThreadId,
			"error":     err,
		})
	}

	o.logger.Error("Orchestrator", "Generation could not start", map[string]interface{}{
		"thread_id": job.ThreadId,
		"model_id":  job.ModelId,
		"error":     cause,
	})
	return OutcomeFailed, 0, cause
}

// fail settles the pending message with the fixed error text and moves the
// thread to error. The provider error itself is only logged.
func (o *Orchestrator) fail(ctx context.Context, job Job, pendingId uuid.UUID, cause error) (Outcome, int, error) {
	if errors.Is(cause, contract.ErrGone) {
		o.logger.Info("Orchestrator", "Thread removed mid-generation, dropping output", map[string]interface{}{
			"thread_id":  job.ThreadId,
			"message_id": pendingId,
		})
		return OutcomeAbandoned, 0, nil
	}

	stopped := errors.Is(context.Cause(ctx), ErrStopped)

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()

	if err := o.store.PatchMessage(writeCtx, pendingId, constant.GenerationErrorMessage, false); err != nil {
		if errors.Is(err, contract.ErrGone) {
			return OutcomeAbandoned, 0, nil
		}
		o.logger.Error("Orchestrator", "Failed to write error message", map[string]interface{}{
			"thread_id":  job.ThreadId,
			"message_id": pendingId,
			"error":      err,
		})
	}
	if err := o.store.UpdateThreadStatus(writeCtx, job.ThreadId, entity.ThreadStatusError); err != nil && !errors.Is(err, contract.ErrGone) {
		o.logger.Error("Orchestrator", "Failed to mark thread as errored", map[string]interface{}{
			"thread_id": job.ThreadId,
			"error":     err,
		})
	}

	details := map[string]interface{}{
		"thread_id":  job.ThreadId,
		"message_id": pendingId,
		"model_id":   job.ModelId,
		"error":      cause,
	}
	if stopped {
		o.logger.Info("Orchestrator", "Generation stopped", details)
		return OutcomeCancelled, 0, nil
	}
	o.logger.Error("Orchestrator", "Generation failed", details)
	return OutcomeFailed, 0, cause
}
