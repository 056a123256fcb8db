package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRegistry_ReleaseOnlyRemovesOwnEntry(t *testing.T) {
	r := NewRegistry()
	threadId := uuid.New()

	ctx1, cancel1 := context.WithCancelCause(context.Background())
	release1 := r.Register(threadId, cancel1)
	ctx2, cancel2 := context.WithCancelCause(context.Background())
	release2 := r.Register(threadId, cancel2)

	release1()
	assert.Equal(t, 1, r.Active())
	assert.True(t, r.IsRunning(threadId))

	assert.True(t, r.Stop(threadId))
	assert.NoError(t, ctx1.Err())
	assert.ErrorIs(t, context.Cause(ctx2), ErrStopped)

	release2()
	assert.Equal(t, 0, r.Active())
	assert.False(t, r.IsRunning(threadId))
	assert.False(t, r.Stop(uuid.New()))
}

func TestFlusher(t *testing.T) {
	now := time.Unix(0, 0)
	clock := func() time.Time { return now }

	every := newFlusher(0, 0)
	assert.True(t, every.due(1))
	assert.True(t, every.due(1))

	byTime := newFlusher(100*time.Millisecond, 0)
	byTime.now = clock
	byTime.lastAt = now
	assert.False(t, byTime.due(10))
	now = now.Add(150 * time.Millisecond)
	assert.True(t, byTime.due(1))
	assert.False(t, byTime.due(1))

	bySize := newFlusher(time.Hour, 4)
	bySize.now = clock
	bySize.lastAt = now
	assert.False(t, bySize.due(3))
	assert.True(t, bySize.due(1))
	assert.False(t, bySize.due(3))
}
