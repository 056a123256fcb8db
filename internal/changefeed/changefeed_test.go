package changefeed

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTopics(t *testing.T) {
	threadId, userId := uuid.New(), uuid.New()

	threadChange := Change{Kind: ThreadUpdated, ThreadId: threadId, UserId: userId}
	assert.Equal(t, []string{"thread:" + threadId.String(), "user:" + userId.String()}, threadChange.Topics())

	messageChange := Change{Kind: MessageUpdated, ThreadId: threadId, UserId: userId}
	assert.Equal(t, []string{"thread:" + threadId.String()}, messageChange.Topics())
}

func TestFeed_EmitsInOrder(t *testing.T) {
	var seen []string
	feed := NewFeed(ListenerFunc(func(c Change) { seen = append(seen, "a:"+string(c.Kind)) }))
	feed.Subscribe(ListenerFunc(func(c Change) { seen = append(seen, "b:"+string(c.Kind)) }))

	feed.Emit(Change{Kind: MessageCreated})
	feed.Emit(Change{Kind: MessageUpdated})

	assert.Equal(t, []string{
		"a:message.created", "b:message.created",
		"a:message.updated", "b:message.updated",
	}, seen)
}
