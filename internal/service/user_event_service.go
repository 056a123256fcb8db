package service

import (
	"context"
	"fmt"

	"mistral-thing-be/internal/constant"
	"mistral-thing-be/internal/pkg/logger"
	"mistral-thing-be/pkg/events"
	natsPkg "mistral-thing-be/pkg/nats"

	"github.com/google/uuid"
)

// EventSubscriber is the part of the NATS subscriber used here.
type EventSubscriber interface {
	Subscribe(ctx context.Context, eventType string, durableName string, handler natsPkg.EventHandler) error
}

// IUserEventService reacts to account lifecycle events from the auth service.
type IUserEventService interface {
	Start(ctx context.Context) error
	HandleUserCreated(ctx context.Context, event events.Event) error
	HandleUserDeleted(ctx context.Context, event events.Event) error
}

type userEventService struct {
	subscriber      EventSubscriber
	settingsService ISettingsService
	threadService   IThreadService
	logger          logger.ILogger
}

func NewUserEventService(
	subscriber EventSubscriber,
	settingsService ISettingsService,
	threadService IThreadService,
	log logger.ILogger,
) IUserEventService {
	return &userEventService{
		subscriber:      subscriber,
		settingsService: settingsService,
		threadService:   threadService,
		logger:          log,
	}
}

func (s *userEventService) Start(ctx context.Context) error {
	if err := s.subscriber.Subscribe(ctx, constant.EventUserCreated, "chat-user-created", s.HandleUserCreated); err != nil {
		return err
	}
	return s.subscriber.Subscribe(ctx, constant.EventUserDeleted, "chat-user-deleted", s.HandleUserDeleted)
}

// userID returns ok=false for events that can never succeed, which are then
// acknowledged and dropped instead of redelivered forever.
func (s *userEventService) userID(event events.Event) (uuid.UUID, bool) {
	raw, ok := events.StringField(event, "user_id")
	if !ok {
		s.logger.Warn("UserEvents", "Event without user_id", map[string]interface{}{
			"event_type": event.EventType(),
		})
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		s.logger.Warn("UserEvents", "Event with malformed user_id", map[string]interface{}{
			"event_type": event.EventType(),
			"user_id":    raw,
		})
		return uuid.Nil, false
	}
	return id, true
}

func (s *userEventService) HandleUserCreated(ctx context.Context, event events.Event) error {
	userId, ok := s.userID(event)
	if !ok {
		return nil
	}
	if err := s.settingsService.CreateDefaults(ctx, userId); err != nil {
		return fmt.Errorf("create default settings: %w", err)
	}
	s.logger.Info("UserEvents", "Default settings created", map[string]interface{}{
		"user_id": userId,
	})
	return nil
}

func (s *userEventService) HandleUserDeleted(ctx context.Context, event events.Event) error {
	userId, ok := s.userID(event)
	if !ok {
		return nil
	}
	if err := s.threadService.DeleteAllForUser(ctx, userId); err != nil {
		return fmt.Errorf("delete threads: %w", err)
	}
	if err := s.settingsService.DeleteForUser(ctx, userId); err != nil {
		return fmt.Errorf("delete settings: %w", err)
	}
	s.logger.Info("UserEvents", "User data removed", map[string]interface{}{
		"user_id": userId,
	})
	return nil
}
