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

func TestSettingsRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewSettingsRepository(testutil.NewDB(t))
	userId := uuid.New()

	settings := &entity.Settings{
		UserId:       userId,
		Mode:         "dark",
		Theme:        "default",
		ModelId:      "mistral-small-latest",
		PinnedModels: []string{"magistral-small-latest", "mistral-small-latest"},
	}
	require.NoError(t, repo.Create(ctx, settings))

	// Redelivered creation keeps the original row.
	require.NoError(t, repo.Create(ctx, &entity.Settings{UserId: userId, Mode: "light", Theme: "vercel", ModelId: "x"}))

	got, err := repo.FindOne(ctx, specification.UserOwnedBy{UserID: userId})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "dark", got.Mode)
	assert.Equal(t, []string{"magistral-small-latest", "mistral-small-latest"}, got.PinnedModels)
	assert.Nil(t, got.Nickname)

	nickname := "Ana"
	got.Nickname = &nickname
	got.Theme = "claude"
	require.NoError(t, repo.Update(ctx, got))

	updated, err := repo.FindOne(ctx, specification.UserOwnedBy{UserID: userId})
	require.NoError(t, err)
	require.NotNil(t, updated.Nickname)
	assert.Equal(t, "Ana", *updated.Nickname)
	assert.Equal(t, "claude", updated.Theme)

	require.NoError(t, repo.DeleteByUserId(ctx, userId))
	gone, err := repo.FindOne(ctx, specification.UserOwnedBy{UserID: userId})
	require.NoError(t, err)
	assert.Nil(t, gone)
	assert.ErrorIs(t, repo.Update(ctx, got), contract.ErrGone)
}
