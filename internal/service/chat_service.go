package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"mistral-thing-be/internal/changefeed"
	"mistral-thing-be/internal/dto"
	"mistral-thing-be/internal/entity"
	"mistral-thing-be/internal/pkg/apperror"
	"mistral-thing-be/internal/pkg/logger"
	"mistral-thing-be/internal/repository/contract"
	"mistral-thing-be/internal/repository/memory"
	"mistral-thing-be/internal/repository/specification"
	"mistral-thing-be/internal/repository/unitofwork"
	"mistral-thing-be/pkg/chat/events"
	"mistral-thing-be/pkg/chat/prompt"

	"github.com/google/uuid"
)

type IChatService interface {
	// SendMessage accepts a user message and queues the assistant response.
	// It returns as soon as the job is queued.
	SendMessage(ctx context.Context, userId uuid.UUID, threadId uuid.UUID, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error)
	Stop(ctx context.Context, userId uuid.UUID, threadId uuid.UUID) error
}

type RateLimitObserver interface {
	RateLimited()
}

type ChatServiceConfig struct {
	AssistantName string
	SiteURL       string
	DefaultModel  string
}

type chatService struct {
	uowFactory        unitofwork.RepositoryFactory
	limiter           *memory.RateLimiter
	rateObserver      RateLimitObserver
	generatePublisher IPublisherService
	titlePublisher    IPublisherService
	eventPublisher    events.Publisher
	stopper           Stopper
	notifier          changeNotifier
	config            ChatServiceConfig
	logger            logger.ILogger
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	limiter *memory.RateLimiter,
	rateObserver RateLimitObserver,
	generatePublisher IPublisherService,
	titlePublisher IPublisherService,
	eventPublisher events.Publisher,
	stopper Stopper,
	feed *changefeed.Feed,
	config ChatServiceConfig,
	log logger.ILogger,
) IChatService {
	return &chatService{
		uowFactory:        uowFactory,
		limiter:           limiter,
		rateObserver:      rateObserver,
		generatePublisher: generatePublisher,
		titlePublisher:    titlePublisher,
		eventPublisher:    eventPublisher,
		stopper:           stopper,
		notifier:          changeNotifier{feed: feed},
		config:            config,
		logger:            log,
	}
}

func (s *chatService) SendMessage(ctx context.Context, userId uuid.UUID, threadId uuid.UUID, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	content := strings.TrimSpace(req.Message)
	if content == "" {
		return nil, apperror.Validation("Message must not be empty.", nil)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if _, err := findOwned(ctx, uow, userId, specification.ByID{ID: threadId}); err != nil {
		return nil, err
	}

	// Claiming the thread is the only gate against concurrent sends: the
	// losing request matches no row and nothing else in this transaction runs.
	claimed, err := uow.ThreadRepository().TransitionStatus(ctx, threadId, entity.AcceptsMessages(), entity.ThreadStatusSubmitted)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, apperror.Conflict(apperror.CodeGenerationInProgress, "A response is still being generated for this thread.")
	}

	// Only sends that would start a generation count against the budget.
	// Returning here rolls the claim back.
	if !s.limiter.Allow(userId) {
		if s.rateObserver != nil {
			s.rateObserver.RateLimited()
		}
		return nil, apperror.TooManyRequests("You are sending messages too quickly. Please wait a moment.")
	}

	settings, err := uow.SettingsRepository().FindOne(ctx, specification.UserOwnedBy{UserID: userId})
	if err != nil {
		return nil, err
	}

	existing, err := uow.MessageRepository().Count(ctx, specification.ByThreadID{ThreadID: threadId})
	if err != nil {
		return nil, err
	}
	firstTurn := existing == 0

	if firstTurn {
		system := &entity.Message{
			Id:       uuid.New(),
			ThreadId: threadId,
			Role:     entity.MessageRoleSystem,
			Content:  prompt.BuildSystemPrompt(s.promptFields(settings)),
		}
		if err := uow.MessageRepository().Create(ctx, system); err != nil {
			return nil, err
		}
		s.notifier.messageCreated(uow, system)
	}

	userMessage := &entity.Message{
		Id:       uuid.New(),
		ThreadId: threadId,
		Role:     entity.MessageRoleUser,
		Content:  content,
	}
	if err := uow.MessageRepository().Create(ctx, userMessage); err != nil {
		return nil, err
	}
	s.notifier.messageCreated(uow, userMessage)

	thread, err := uow.ThreadRepository().FindOne(ctx, specification.ByID{ID: threadId})
	if err != nil {
		return nil, err
	}
	s.notifier.threadUpdated(uow, thread)

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	job := dto.GenerateJobMessage{
		ThreadId: threadId,
		UserId:   userId,
		ModelId:  s.modelFor(settings, thread),
	}
	if err := s.enqueue(ctx, s.generatePublisher, job); err != nil {
		s.logger.Error("ChatService", "Failed to queue generation", map[string]interface{}{
			"thread_id": threadId,
			"error":     err,
		})
		s.releaseThread(threadId)
		return nil, apperror.Internal(err)
	}

	if firstTurn {
		titleJob := dto.TitleJobMessage{ThreadId: threadId, Content: content}
		if err := s.enqueue(ctx, s.titlePublisher, titleJob); err != nil {
			s.logger.Warn("ChatService", "Failed to queue title generation", map[string]interface{}{
				"thread_id": threadId,
				"error":     err.Error(),
			})
		}
	}

	s.eventPublisher.PublishMessageSent(ctx, threadId, userId, userMessage.Id, firstTurn)

	return &dto.SendMessageResponse{
		ThreadId:      threadId,
		UserMessageId: userMessage.Id,
	}, nil
}

func (s *chatService) promptFields(settings *entity.Settings) prompt.Fields {
	fields := prompt.Fields{
		AssistantName: s.config.AssistantName,
		SiteURL:       s.config.SiteURL,
	}
	if settings != nil {
		fields.Nickname = settings.Nickname
		fields.Biography = settings.Biography
		fields.Instructions = settings.Instructions
	}
	return fields
}

// modelFor prefers the user's chosen model, then the model the thread was
// created with.
func (s *chatService) modelFor(settings *entity.Settings, thread *entity.Thread) string {
	if settings != nil && settings.ModelId != "" {
		return settings.ModelId
	}
	if thread != nil && thread.ModelId != "" {
		return thread.ModelId
	}
	return s.config.DefaultModel
}

func (s *chatService) enqueue(ctx context.Context, publisher IPublisherService, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return publisher.Publish(ctx, raw)
}

// releaseThread puts a claimed thread into the error state when its job
// never made it onto the queue, so the user can send again.
func (s *chatService) releaseThread(threadId uuid.UUID) {
	ctx := context.Background()
	details := map[string]interface{}{"thread_id": threadId}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		details["error"] = err.Error()
		s.logger.Error("ChatService", "Failed to release thread: begin", details)
		return
	}
	defer uow.Rollback()

	if err := uow.ThreadRepository().UpdateStatus(ctx, threadId, entity.ThreadStatusError); err != nil {
		if errors.Is(err, contract.ErrGone) {
			s.logger.Info("ChatService", "Thread removed before release", details)
			return
		}
		details["error"] = err.Error()
		s.logger.Error("ChatService", "Failed to release thread: update status", details)
		return
	}
	thread, err := uow.ThreadRepository().FindOne(ctx, specification.ByID{ID: threadId})
	if err != nil {
		details["error"] = err.Error()
		s.logger.Error("ChatService", "Failed to release thread: reload", details)
		return
	}
	s.notifier.threadUpdated(uow, thread)
	if err := uow.Commit(); err != nil {
		details["error"] = err.Error()
		s.logger.Error("ChatService", "Failed to release thread: commit", details)
	}
}

// Stop cancels the thread's running generation. Stopping an idle thread is
// a no-op.
func (s *chatService) Stop(ctx context.Context, userId uuid.UUID, threadId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	thread, err := findOwned(ctx, uow, userId, specification.ByID{ID: threadId})
	if err != nil {
		return err
	}
	if !thread.Status.IsBusy() {
		return nil
	}

	if !s.stopper.Stop(threadId) {
		s.logger.Info("ChatService", "Stop requested for a generation not running on this instance", map[string]interface{}{
			"thread_id": threadId,
		})
	}
	return nil
}
