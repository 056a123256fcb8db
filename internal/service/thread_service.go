package service

import (
	"context"
	"errors"
	"strings"

	"mistral-thing-be/internal/changefeed"
	"mistral-thing-be/internal/dto"
	"mistral-thing-be/internal/entity"
	"mistral-thing-be/internal/pkg/apperror"
	"mistral-thing-be/internal/repository/contract"
	"mistral-thing-be/internal/repository/memory"
	"mistral-thing-be/internal/repository/specification"
	"mistral-thing-be/internal/repository/unitofwork"
	"mistral-thing-be/pkg/chat/events"
	"mistral-thing-be/pkg/utils"

	"github.com/google/uuid"
)

type IThreadService interface {
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateThreadRequest) (*dto.ThreadResponse, error)
	GetAll(ctx context.Context, userId uuid.UUID) ([]*dto.ThreadResponse, error)
	Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.ThreadWithMessagesResponse, error)
	ShowBySlug(ctx context.Context, userId uuid.UUID, slug string) (*dto.ThreadWithMessagesResponse, error)
	Messages(ctx context.Context, userId uuid.UUID, id uuid.UUID) ([]*dto.MessageResponse, error)
	Update(ctx context.Context, userId uuid.UUID, id uuid.UUID, req *dto.UpdateThreadRequest) (*dto.ThreadResponse, error)
	Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
	DeleteAllForUser(ctx context.Context, userId uuid.UUID) error
	// CanSubscribe decides websocket topic access for thread topics.
	CanSubscribe(ctx context.Context, userId uuid.UUID, topic string) bool
}

// Stopper cancels a running generation for a thread.
type Stopper interface {
	Stop(threadId uuid.UUID) bool
}

type threadService struct {
	uowFactory unitofwork.RepositoryFactory
	queryCache *memory.QueryCache
	publisher  events.Publisher
	stopper    Stopper
	notifier   changeNotifier
}

func NewThreadService(
	uowFactory unitofwork.RepositoryFactory,
	queryCache *memory.QueryCache,
	publisher events.Publisher,
	stopper Stopper,
	feed *changefeed.Feed,
) IThreadService {
	return &threadService{
		uowFactory: uowFactory,
		queryCache: queryCache,
		publisher:  publisher,
		stopper:    stopper,
		notifier:   changeNotifier{feed: feed},
	}
}

var (
	errThreadNotFound  = apperror.NotFound("Thread not found.")
	errThreadForbidden = apperror.Forbidden("You do not have access to this thread.")
)

// findOwned loads a live thread and checks that userId owns it.
func findOwned(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, specs ...specification.Specification) (*entity.Thread, error) {
	thread, err := uow.ThreadRepository().FindOne(ctx, specs...)
	if err != nil {
		return nil, err
	}
	if thread == nil {
		return nil, errThreadNotFound
	}
	if !thread.OwnedBy(userId) {
		return nil, errThreadForbidden
	}
	return thread, nil
}

func (s *threadService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateThreadRequest) (*dto.ThreadResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	id := uuid.New()
	title := strings.TrimSpace(req.Title)
	thread := &entity.Thread{
		Id:      id,
		UserId:  userId,
		Title:   title,
		Slug:    utils.MakeSlug(title, id),
		Status:  entity.ThreadStatusReady,
		ModelId: strings.TrimSpace(req.ModelId),
	}
	if err := uow.ThreadRepository().Create(ctx, thread); err != nil {
		return nil, err
	}
	s.notifier.threadUpdated(uow, thread)

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.publisher.PublishThreadCreated(ctx, thread.Id, userId, thread.ModelId)
	return dto.NewThreadResponse(thread), nil
}

func (s *threadService) GetAll(ctx context.Context, userId uuid.UUID) ([]*dto.ThreadResponse, error) {
	threads, err := s.queryCache.Threads(userId, func() ([]*entity.Thread, error) {
		uow := s.uowFactory.NewUnitOfWork(ctx)
		return uow.ThreadRepository().FindAll(ctx,
			specification.UserOwnedBy{UserID: userId},
			specification.OrderBy{Field: "updated_at", Desc: true},
		)
	})
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ThreadResponse, 0, len(threads))
	for _, t := range threads {
		res = append(res, dto.NewThreadResponse(t))
	}
	return res, nil
}

func (s *threadService) messages(ctx context.Context, threadId uuid.UUID) ([]*entity.Message, error) {
	return s.queryCache.Messages(threadId, func() ([]*entity.Message, error) {
		uow := s.uowFactory.NewUnitOfWork(ctx)
		return uow.MessageRepository().FindAll(ctx, specification.ByThreadID{ThreadID: threadId})
	})
}

func (s *threadService) withMessages(ctx context.Context, thread *entity.Thread) (*dto.ThreadWithMessagesResponse, error) {
	messages, err := s.messages(ctx, thread.Id)
	if err != nil {
		return nil, err
	}
	return &dto.ThreadWithMessagesResponse{
		ThreadResponse: *dto.NewThreadResponse(thread),
		Messages:       dto.NewMessageResponses(messages),
	}, nil
}

func (s *threadService) Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.ThreadWithMessagesResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	thread, err := findOwned(ctx, uow, userId, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	return s.withMessages(ctx, thread)
}

// ShowBySlug only searches the caller's own threads; slugs are unique per user.
func (s *threadService) ShowBySlug(ctx context.Context, userId uuid.UUID, slug string) (*dto.ThreadWithMessagesResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	thread, err := findOwned(ctx, uow, userId,
		specification.BySlug{Slug: slug},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	return s.withMessages(ctx, thread)
}

func (s *threadService) Messages(ctx context.Context, userId uuid.UUID, id uuid.UUID) ([]*dto.MessageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if _, err := findOwned(ctx, uow, userId, specification.ByID{ID: id}); err != nil {
		return nil, err
	}
	messages, err := s.messages(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewMessageResponses(messages), nil
}

// Update renames a thread or resets its status. The generation states are
// owned by the orchestrator, so only ready and error can be set by hand and
// only while nothing is running.
func (s *threadService) Update(ctx context.Context, userId uuid.UUID, id uuid.UUID, req *dto.UpdateThreadRequest) (*dto.ThreadResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if _, err := findOwned(ctx, uow, userId, specification.ByID{ID: id}); err != nil {
		return nil, err
	}

	if req.Title != nil {
		if err := uow.ThreadRepository().UpdateTitle(ctx, id, strings.TrimSpace(*req.Title)); err != nil {
			return nil, err
		}
	}

	if req.Status != nil {
		status := entity.ThreadStatus(*req.Status)
		if status.IsBusy() {
			return nil, apperror.Validation("Status can only be set to ready or error.", nil)
		}
		ok, err := uow.ThreadRepository().TransitionStatus(ctx, id, entity.AcceptsMessages(), status)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperror.Conflict(apperror.CodeGenerationInProgress, "A response is still being generated for this thread.")
		}
	}

	updated, err := uow.ThreadRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, errThreadNotFound
	}
	s.notifier.threadUpdated(uow, updated)

	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return dto.NewThreadResponse(updated), nil
}

func (s *threadService) Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	thread, err := findOwned(ctx, uow, userId, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if err := s.deleteThread(ctx, uow, thread); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	s.afterDelete(ctx, thread)
	return nil
}

// deleteThread removes the thread row before its messages. Writers touch the
// thread before inserting, so once the row is gone (or locked by this
// transaction) no new message can land after the sweep below.
func (s *threadService) deleteThread(ctx context.Context, uow unitofwork.UnitOfWork, thread *entity.Thread) error {
	if err := uow.ThreadRepository().Delete(ctx, thread.Id); err != nil {
		if errors.Is(err, contract.ErrGone) {
			return errThreadNotFound
		}
		return err
	}
	if err := uow.MessageRepository().DeleteByThreadId(ctx, thread.Id); err != nil {
		return err
	}
	s.notifier.threadDeleted(uow, thread)
	return nil
}

// afterDelete stops a generation still writing to the thread. It would fail
// on its next write anyway; stopping it saves the remaining provider tokens.
func (s *threadService) afterDelete(ctx context.Context, thread *entity.Thread) {
	if s.stopper != nil && thread.Status.IsBusy() {
		s.stopper.Stop(thread.Id)
	}
	s.publisher.PublishThreadDeleted(ctx, thread.Id, thread.UserId)
}

func (s *threadService) DeleteAllForUser(ctx context.Context, userId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	threads, err := uow.ThreadRepository().FindAll(ctx, specification.UserOwnedBy{UserID: userId})
	if err != nil {
		return err
	}
	for _, thread := range threads {
		if err := s.deleteThread(ctx, uow, thread); err != nil {
			return err
		}
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	for _, thread := range threads {
		s.afterDelete(ctx, thread)
	}
	return nil
}

func (s *threadService) CanSubscribe(ctx context.Context, userId uuid.UUID, topic string) bool {
	raw, ok := strings.CutPrefix(topic, "thread:")
	if !ok {
		return false
	}
	threadId, err := uuid.Parse(raw)
	if err != nil {
		return false
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	thread, err := uow.ThreadRepository().FindOne(ctx, specification.ByID{ID: threadId})
	if err != nil || thread == nil {
		return false
	}
	return thread.OwnedBy(userId)
}
