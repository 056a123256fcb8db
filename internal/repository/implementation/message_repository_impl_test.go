package implementation

import (
	"context"
	"testing"

	"mistral-thing-be/internal/entity"
	"mistral-thing-be/internal/repository/contract"
	"mistral-thing-be/internal/repository/specification"
	"mistral-thing-be/internal/repository/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageRepository_SeqOrdering(t *testing.T) {
	ctx := context.Background()
	repo := NewMessageRepository(testutil.NewDB(t))
	threadId := uuid.New()

	roles := []entity.MessageRole{entity.MessageRoleSystem, entity.MessageRoleUser, entity.MessageRoleAssistant}
	for _, role := range roles {
		require.NoError(t, repo.Create(ctx, &entity.Message{ThreadId: threadId, Role: role, Content: string(role)}))
	}
	// Another thread has its own sequence.
	other := &entity.Message{ThreadId: uuid.New(), Role: entity.MessageRoleUser, Content: "x"}
	require.NoError(t, repo.Create(ctx, other))
	assert.Equal(t, int64(1), other.Seq)

	messages, err := repo.FindAll(ctx, specification.ByThreadID{ThreadID: threadId})
	require.NoError(t, err)
	require.Len(t, messages, 3)
	for i, msg := range messages {
		assert.Equal(t, int64(i+1), msg.Seq)
		assert.Equal(t, roles[i], msg.Role)
	}
}

func TestMessageRepository_PatchAndFinalizedFilter(t *testing.T) {
	ctx := context.Background()
	repo := NewMessageRepository(testutil.NewDB(t))
	threadId := uuid.New()

	user := &entity.Message{ThreadId: threadId, Role: entity.MessageRoleUser, Content: "Hello"}
	require.NoError(t, repo.Create(ctx, user))
	pending := &entity.Message{ThreadId: threadId, Role: entity.MessageRoleAssistant, IsStreaming: true}
	require.NoError(t, repo.Create(ctx, pending))

	require.NoError(t, repo.Patch(ctx, pending.Id, "Hi", true))

	history, err := repo.FindAll(ctx, specification.ByThreadID{ThreadID: threadId}, specification.Finalized{})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, user.Id, history[0].Id)

	require.NoError(t, repo.Patch(ctx, pending.Id, "Hi there", false))
	got, err := repo.FindOne(ctx, specification.ByID{ID: pending.Id})
	require.NoError(t, err)
	assert.Equal(t, "Hi there", got.Content)
	assert.False(t, got.IsStreaming)
}

func TestMessageRepository_PatchNeverInserts(t *testing.T) {
	ctx := context.Background()
	repo := NewMessageRepository(testutil.NewDB(t))
	threadId := uuid.New()

	msg := &entity.Message{ThreadId: threadId, Role: entity.MessageRoleAssistant, IsStreaming: true}
	require.NoError(t, repo.Create(ctx, msg))
	require.NoError(t, repo.DeleteByThreadId(ctx, threadId))

	assert.ErrorIs(t, repo.Patch(ctx, msg.Id, "late delta", true), contract.ErrGone)
	assert.ErrorIs(t, repo.Patch(ctx, uuid.New(), "never existed", false), contract.ErrGone)

	count, err := repo.Count(ctx, specification.ByThreadID{ThreadID: threadId})
	require.NoError(t, err)
	assert.Zero(t, count)

	// Sequence keeps counting past soft-deleted rows.
	next := &entity.Message{ThreadId: threadId, Role: entity.MessageRoleUser, Content: "again"}
	require.NoError(t, repo.Create(ctx, next))
	assert.Equal(t, int64(2), next.Seq)
}

func TestMessageRepository_PatchRejectsFinalized(t *testing.T) {
	ctx := context.Background()
	repo := NewMessageRepository(testutil.NewDB(t))
	threadId := uuid.New()

	msg := &entity.Message{ThreadId: threadId, Role: entity.MessageRoleAssistant, IsStreaming: true}
	require.NoError(t, repo.Create(ctx, msg))
	require.NoError(t, repo.Patch(ctx, msg.Id, "final answer", false))

	assert.ErrorIs(t, repo.Patch(ctx, msg.Id, "late delta", true), contract.ErrGone)
	assert.ErrorIs(t, repo.Patch(ctx, msg.Id, "late final", false), contract.ErrGone)

	got, err := repo.FindOne(ctx, specification.ByID{ID: msg.Id})
	require.NoError(t, err)
	assert.Equal(t, "final answer", got.Content)
	assert.False(t, got.IsStreaming)

	user := &entity.Message{ThreadId: threadId, Role: entity.MessageRoleUser, Content: "Hello"}
	require.NoError(t, repo.Create(ctx, user))
	assert.ErrorIs(t, repo.Patch(ctx, user.Id, "rewritten", false), contract.ErrGone)
}
