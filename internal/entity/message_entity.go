package entity

import (
	"time"

	"github.com/google/uuid"
)

type MessageRole string

const (
	MessageRoleSystem    MessageRole = "system"
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

type Message struct {
	Id          uuid.UUID
	ThreadId    uuid.UUID
	Role        MessageRole
	Content     string
	IsStreaming bool
	Seq         int64 // creation order within the thread
	CreatedAt   time.Time
	UpdatedAt   *time.Time
	DeletedAt   *time.Time
	IsDeleted   bool
}
