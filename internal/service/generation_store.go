package service

import (
	"context"
	"errors"
	"time"

	"mistral-thing-be/internal/changefeed"
	"mistral-thing-be/internal/constant"
	"mistral-thing-be/internal/entity"
	"mistral-thing-be/internal/repository/contract"
	"mistral-thing-be/internal/repository/specification"
	"mistral-thing-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// GenerationStore is the database side of the orchestrator and the title
// generator. Every write is its own transaction and is announced on the
// changefeed once committed.
type GenerationStore struct {
	uowFactory unitofwork.RepositoryFactory
	notifier   changeNotifier
}

func NewGenerationStore(uowFactory unitofwork.RepositoryFactory, feed *changefeed.Feed) *GenerationStore {
	return &GenerationStore{
		uowFactory: uowFactory,
		notifier:   changeNotifier{feed: feed},
	}
}

func (s *GenerationStore) withTx(ctx context.Context, fn func(uow unitofwork.UnitOfWork) error) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := fn(uow); err != nil {
		return err
	}
	return uow.Commit()
}

func (s *GenerationStore) reloadThread(ctx context.Context, uow unitofwork.UnitOfWork, threadId uuid.UUID) error {
	thread, err := uow.ThreadRepository().FindOne(ctx, specification.ByID{ID: threadId})
	if err != nil {
		return err
	}
	s.notifier.threadUpdated(uow, thread)
	return nil
}

func (s *GenerationStore) UpdateThreadStatus(ctx context.Context, threadId uuid.UUID, status entity.ThreadStatus) error {
	return s.withTx(ctx, func(uow unitofwork.UnitOfWork) error {
		if err := uow.ThreadRepository().UpdateStatus(ctx, threadId, status); err != nil {
			return err
		}
		return s.reloadThread(ctx, uow, threadId)
	})
}

// InsertPendingMessage touches the thread first so that a thread deleted
// between the user's send and this insert yields ErrGone instead of an
// orphaned assistant row.
func (s *GenerationStore) InsertPendingMessage(ctx context.Context, threadId uuid.UUID) (*entity.Message, error) {
	var pending *entity.Message
	err := s.withTx(ctx, func(uow unitofwork.UnitOfWork) error {
		if err := uow.ThreadRepository().Touch(ctx, threadId); err != nil {
			return err
		}

		message := &entity.Message{
			Id:          uuid.New(),
			ThreadId:    threadId,
			Role:        entity.MessageRoleAssistant,
			Content:     "",
			IsStreaming: true,
		}
		if err := uow.MessageRepository().Create(ctx, message); err != nil {
			return err
		}
		s.notifier.messageCreated(uow, message)
		pending = message

		return s.reloadThread(ctx, uow, threadId)
	})
	if err != nil {
		return nil, err
	}
	return pending, nil
}

func (s *GenerationStore) PatchMessage(ctx context.Context, messageId uuid.UUID, content string, isStreaming bool) error {
	return s.withTx(ctx, func(uow unitofwork.UnitOfWork) error {
		if err := uow.MessageRepository().Patch(ctx, messageId, content, isStreaming); err != nil {
			return err
		}
		message, err := uow.MessageRepository().FindOne(ctx, specification.ByID{ID: messageId})
		if err != nil {
			return err
		}
		s.notifier.messageUpdated(uow, message)
		return nil
	})
}

func (s *GenerationStore) ListHistory(ctx context.Context, threadId uuid.UUID) ([]*entity.Message, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.MessageRepository().FindAll(ctx,
		specification.ByThreadID{ThreadID: threadId},
		specification.Finalized{},
	)
}

func (s *GenerationStore) UpdateThreadTitle(ctx context.Context, threadId uuid.UUID, title string) error {
	return s.withTx(ctx, func(uow unitofwork.UnitOfWork) error {
		if err := uow.ThreadRepository().UpdateTitle(ctx, threadId, title); err != nil {
			return err
		}
		return s.reloadThread(ctx, uow, threadId)
	})
}

// SettleStale fails generations whose thread has not moved since cutoff,
// typically because the instance running them died. It returns how many
// threads it settled.
func (s *GenerationStore) SettleStale(ctx context.Context, cutoff time.Time, skip func(threadId uuid.UUID) bool) (int, error) {
	busy := []entity.ThreadStatus{entity.ThreadStatusSubmitted, entity.ThreadStatusStreaming}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	stale, err := uow.ThreadRepository().FindAll(ctx,
		specification.ByStatus{Statuses: busy},
		specification.UpdatedBefore{Time: cutoff},
	)
	if err != nil {
		return 0, err
	}

	settled := 0
	for _, thread := range stale {
		if skip != nil && skip(thread.Id) {
			continue
		}
		err := s.withTx(ctx, func(uow unitofwork.UnitOfWork) error {
			claimed, err := uow.ThreadRepository().TransitionStatus(ctx, thread.Id, busy, entity.ThreadStatusError)
			if err != nil {
				return err
			}
			if !claimed {
				return contract.ErrGone
			}

			pending, err := uow.MessageRepository().FindAll(ctx,
				specification.ByThreadID{ThreadID: thread.Id},
				specification.Streaming{},
			)
			if err != nil {
				return err
			}
			for _, message := range pending {
				if err := uow.MessageRepository().Patch(ctx, message.Id, constant.GenerationErrorMessage, false); err != nil {
					return err
				}
				patched, err := uow.MessageRepository().FindOne(ctx, specification.ByID{ID: message.Id})
				if err != nil {
					return err
				}
				s.notifier.messageUpdated(uow, patched)
			}
			return s.reloadThread(ctx, uow, thread.Id)
		})
		if err != nil {
			if errors.Is(err, contract.ErrGone) {
				continue
			}
			return settled, err
		}
		settled++
	}
	return settled, nil
}
