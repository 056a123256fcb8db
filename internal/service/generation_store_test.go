package service

import (
	"context"
	"testing"
	"time"

	"mistral-thing-be/internal/changefeed"
	"mistral-thing-be/internal/constant"
	"mistral-thing-be/internal/entity"
	"mistral-thing-be/internal/pkg/logger"
	"mistral-thing-be/internal/repository/contract"
	"mistral-thing-be/pkg/chat/orchestrator"
	"mistral-thing-be/pkg/chat/title"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerationStore_InsertPendingOnDeletedThread(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	thread := f.thread(t, uuid.New(), entity.ThreadStatusSubmitted)
	require.NoError(t, f.factory.NewUnitOfWork(ctx).ThreadRepository().Delete(ctx, thread.Id))

	store := NewGenerationStore(f.factory, f.feed)
	_, err := store.InsertPendingMessage(ctx, thread.Id)
	assert.ErrorIs(t, err, contract.ErrGone)
	assert.ErrorIs(t, store.UpdateThreadStatus(ctx, thread.Id, entity.ThreadStatusStreaming), contract.ErrGone)
	assert.ErrorIs(t, store.UpdateThreadTitle(ctx, thread.Id, "Late"), contract.ErrGone)

	assert.Empty(t, f.loadMessages(t, thread.Id))
	assert.Empty(t, f.changes.kinds(), "failed writes announce nothing")
}

func TestGenerationStore_HistoryExcludesPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	thread := f.thread(t, uuid.New(), entity.ThreadStatusStreaming)
	f.message(t, thread.Id, entity.MessageRoleSystem, "prompt", false)
	f.message(t, thread.Id, entity.MessageRoleUser, "hi", false)

	store := NewGenerationStore(f.factory, f.feed)
	pending, err := store.InsertPendingMessage(ctx, thread.Id)
	require.NoError(t, err)
	assert.True(t, pending.IsStreaming)
	assert.Equal(t, int64(3), pending.Seq)

	history, err := store.ListHistory(ctx, thread.Id)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "hi", history[1].Content)
}

// Runs the orchestrator against the real store: the user sees the pending
// message grow through the changefeed and end finalized with the thread
// back to ready.
func TestGenerationStore_OrchestratorRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userId := uuid.New()
	thread := f.thread(t, userId, entity.ThreadStatusSubmitted)
	f.message(t, thread.Id, entity.MessageRoleSystem, "prompt", false)
	f.message(t, thread.Id, entity.MessageRoleUser, "hi", false)

	store := NewGenerationStore(f.factory, f.feed)
	orch := orchestrator.New(store, &scriptedLLM{deltas: []string{"Hel", "lo"}}, orchestrator.NewRegistry(), nil, logger.NewNopLogger(), orchestrator.Config{})
	require.NoError(t, orch.Run(ctx, orchestrator.Job{ThreadId: thread.Id, UserId: userId, ModelId: "m"}))

	messages := f.loadMessages(t, thread.Id)
	require.Len(t, messages, 3)
	assert.Equal(t, "Hello", messages[2].Content)
	assert.False(t, messages[2].IsStreaming)
	assert.Equal(t, entity.ThreadStatusReady, f.loadThread(t, thread.Id).Status)

	var contents []string
	var statuses []entity.ThreadStatus
	for _, change := range f.changes.changes {
		switch change.Kind {
		case changefeed.MessageCreated, changefeed.MessageUpdated:
			contents = append(contents, change.Message.Content)
		case changefeed.ThreadUpdated:
			statuses = append(statuses, change.Thread.Status)
		}
	}
	assert.Equal(t, []string{"", "Hel", "Hello", "Hello"}, contents)
	assert.Equal(t, entity.ThreadStatusReady, statuses[len(statuses)-1])
	assert.Contains(t, statuses, entity.ThreadStatusStreaming)
}

func TestGenerationStore_OrchestratorFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userId := uuid.New()
	thread := f.thread(t, userId, entity.ThreadStatusSubmitted)
	f.message(t, thread.Id, entity.MessageRoleUser, "hi", false)

	store := NewGenerationStore(f.factory, f.feed)
	orch := orchestrator.New(store, &scriptedLLM{deltas: []string{"par"}, err: errProviderDown}, orchestrator.NewRegistry(), nil, logger.NewNopLogger(), orchestrator.Config{})
	assert.Error(t, orch.Run(ctx, orchestrator.Job{ThreadId: thread.Id, UserId: userId, ModelId: "m"}))

	messages := f.loadMessages(t, thread.Id)
	require.Len(t, messages, 2)
	assert.Equal(t, constant.GenerationErrorMessage, messages[1].Content)
	assert.False(t, messages[1].IsStreaming)
	assert.Equal(t, entity.ThreadStatusError, f.loadThread(t, thread.Id).Status)
}

func TestGenerationStore_TitleGenerator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	thread := f.thread(t, uuid.New(), entity.ThreadStatusSubmitted)
	store := NewGenerationStore(f.factory, f.feed)

	named := title.NewGenerator(&scriptedLLM{deltas: []string{"Weekend plans"}}, store, "m", logger.NewNopLogger())
	assert.Equal(t, "Weekend plans", named.Run(ctx, title.Job{ThreadId: thread.Id, Content: "what should I do this weekend"}))
	assert.Equal(t, "Weekend plans", f.loadThread(t, thread.Id).Title)

	fallback := title.NewGenerator(&scriptedLLM{err: errProviderDown}, store, "m", logger.NewNopLogger())
	fallback.Run(ctx, title.Job{ThreadId: thread.Id, Content: "x"})
	reloaded := f.loadThread(t, thread.Id)
	assert.Equal(t, constant.FallbackThreadTitle, reloaded.Title)
	assert.Equal(t, entity.ThreadStatusSubmitted, reloaded.Status, "naming never touches status")
}

func TestGenerationStore_SettleStale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stuck := f.thread(t, uuid.New(), entity.ThreadStatusStreaming)
	pending := f.message(t, stuck.Id, entity.MessageRoleAssistant, "half an ans", true)
	running := f.thread(t, uuid.New(), entity.ThreadStatusStreaming)
	idle := f.thread(t, uuid.New(), entity.ThreadStatusReady)

	store := NewGenerationStore(f.factory, f.feed)
	settled, err := store.SettleStale(ctx, time.Now().Add(time.Minute), func(id uuid.UUID) bool {
		return id == running.Id
	})
	require.NoError(t, err)
	assert.Equal(t, 1, settled)

	assert.Equal(t, entity.ThreadStatusError, f.loadThread(t, stuck.Id).Status)
	assert.Equal(t, entity.ThreadStatusStreaming, f.loadThread(t, running.Id).Status)
	assert.Equal(t, entity.ThreadStatusReady, f.loadThread(t, idle.Id).Status)

	messages := f.loadMessages(t, stuck.Id)
	require.Len(t, messages, 1)
	assert.Equal(t, pending.Id, messages[0].Id)
	assert.Equal(t, constant.GenerationErrorMessage, messages[0].Content)
	assert.False(t, messages[0].IsStreaming)

	fresh, err := store.SettleStale(ctx, time.Now().Add(-time.Hour), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, fresh)
}

// A generation that keeps writing after the stale sweep settled its message
// must not flip the row back to streaming.
func TestGenerationStore_LatePatchAfterSettle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	thread := f.thread(t, uuid.New(), entity.ThreadStatusStreaming)
	pending := f.message(t, thread.Id, entity.MessageRoleAssistant, "half an", true)

	store := NewGenerationStore(f.factory, f.feed)
	settled, err := store.SettleStale(ctx, time.Now().Add(time.Minute), nil)
	require.NoError(t, err)
	require.Equal(t, 1, settled)

	assert.ErrorIs(t, store.PatchMessage(ctx, pending.Id, "half an answer", true), contract.ErrGone)
	assert.ErrorIs(t, store.PatchMessage(ctx, pending.Id, "half an answer.", false), contract.ErrGone)

	messages := f.loadMessages(t, thread.Id)
	require.Len(t, messages, 1)
	assert.Equal(t, constant.GenerationErrorMessage, messages[0].Content)
	assert.False(t, messages[0].IsStreaming)
	assert.Equal(t, entity.ThreadStatusError, f.loadThread(t, thread.Id).Status)
}
