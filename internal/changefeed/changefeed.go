// Package changefeed carries committed Thread and Message writes to the
// components that mirror them: the websocket hub and the query cache.
package changefeed

import (
	"fmt"
	"sync"

	"mistral-thing-be/internal/entity"

	"github.com/google/uuid"
)

type Kind string

const (
	ThreadUpdated  Kind = "thread.updated"
	ThreadDeleted  Kind = "thread.deleted"
	MessageCreated Kind = "message.created"
	MessageUpdated Kind = "message.updated"
)

// Change describes one committed write. Thread is set for thread kinds,
// Message for message kinds.
type Change struct {
	Kind     Kind            `json:"kind"`
	ThreadId uuid.UUID       `json:"thread_id"`
	UserId   uuid.UUID       `json:"user_id"`
	Thread   *entity.Thread  `json:"thread,omitempty"`
	Message  *entity.Message `json:"message,omitempty"`
}

func ThreadTopic(threadId uuid.UUID) string {
	return fmt.Sprintf("thread:%s", threadId)
}

func UserTopic(userId uuid.UUID) string {
	return fmt.Sprintf("user:%s", userId)
}

// Topics lists the subscription topics a change is delivered on. Thread
// changes also reach the owner's user topic so thread lists stay fresh.
func (c Change) Topics() []string {
	switch c.Kind {
	case ThreadUpdated, ThreadDeleted:
		return []string{ThreadTopic(c.ThreadId), UserTopic(c.UserId)}
	default:
		return []string{ThreadTopic(c.ThreadId)}
	}
}

type Listener interface {
	OnChange(change Change)
}

type ListenerFunc func(change Change)

func (f ListenerFunc) OnChange(change Change) { f(change) }

// Feed dispatches changes synchronously to its listeners, in order.
// Listeners must not block.
type Feed struct {
	mu        sync.RWMutex
	listeners []Listener
}

func NewFeed(listeners ...Listener) *Feed {
	return &Feed{listeners: listeners}
}

func (f *Feed) Subscribe(l Listener) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, l)
}

func (f *Feed) Emit(change Change) {
	f.mu.RLock()
	listeners := f.listeners
	f.mu.RUnlock()

	for _, l := range listeners {
		l.OnChange(change)
	}
}
