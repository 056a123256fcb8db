package service

import (
	"context"
	"testing"
	"time"

	"mistral-thing-be/internal/constant"
	"mistral-thing-be/internal/entity"
	"mistral-thing-be/internal/pkg/logger"
	"mistral-thing-be/internal/repository/memory"
	"mistral-thing-be/internal/repository/specification"
	"mistral-thing-be/pkg/events"
	natsPkg "mistral-thing-be/pkg/nats"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubscriber struct {
	handlers map[string]natsPkg.EventHandler
}

func (s *fakeSubscriber) Subscribe(ctx context.Context, eventType string, durableName string, handler natsPkg.EventHandler) error {
	s.handlers[eventType] = handler
	return nil
}

func TestUserEventService_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	settings := NewSettingsService(f.factory, "")
	threads := NewThreadService(f.factory, memory.NewQueryCache(time.Minute), &recordingEvents{}, nil, f.feed)
	sub := &fakeSubscriber{handlers: map[string]natsPkg.EventHandler{}}

	svc := NewUserEventService(sub, settings, threads, logger.NewNopLogger())
	require.NoError(t, svc.Start(ctx))
	require.Contains(t, sub.handlers, constant.EventUserCreated)
	require.Contains(t, sub.handlers, constant.EventUserDeleted)

	userId := uuid.New()
	created := events.New(constant.EventUserCreated, map[string]interface{}{"user_id": userId.String()})
	require.NoError(t, sub.handlers[constant.EventUserCreated](ctx, created))
	require.NoError(t, sub.handlers[constant.EventUserCreated](ctx, created), "redelivery is harmless")

	row, err := f.factory.NewUnitOfWork(ctx).SettingsRepository().FindOne(ctx, specification.UserOwnedBy{UserID: userId})
	require.NoError(t, err)
	require.NotNil(t, row)

	thread := f.thread(t, userId, entity.ThreadStatusReady)
	deleted := events.New(constant.EventUserDeleted, map[string]interface{}{"user_id": userId.String()})
	require.NoError(t, sub.handlers[constant.EventUserDeleted](ctx, deleted))

	assert.Nil(t, f.loadThread(t, thread.Id))
	row, err = f.factory.NewUnitOfWork(ctx).SettingsRepository().FindOne(ctx, specification.UserOwnedBy{UserID: userId})
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestUserEventService_DropsMalformedEvents(t *testing.T) {
	f := newFixture(t)
	svc := NewUserEventService(&fakeSubscriber{}, NewSettingsService(f.factory, ""), nil, logger.NewNopLogger())

	assert.NoError(t, svc.HandleUserCreated(context.Background(), events.New(constant.EventUserCreated, map[string]interface{}{})))
	assert.NoError(t, svc.HandleUserDeleted(context.Background(), events.New(constant.EventUserDeleted, map[string]interface{}{"user_id": "nope"})))
}
