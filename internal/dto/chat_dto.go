package dto

import "github.com/google/uuid"

type SendMessageRequest struct {
	Message string `json:"message" validate:"required,min=1,max=32000"`
}

type SendMessageResponse struct {
	ThreadId      uuid.UUID `json:"thread_id"`
	UserMessageId uuid.UUID `json:"user_message_id"`
}

// GenerateJobMessage is the task queue payload for one generation.
type GenerateJobMessage struct {
	ThreadId uuid.UUID `json:"thread_id"`
	UserId   uuid.UUID `json:"user_id"`
	ModelId  string    `json:"model_id"`
}

// TitleJobMessage is the task queue payload for naming a new thread.
type TitleJobMessage struct {
	ThreadId uuid.UUID `json:"thread_id"`
	Content  string    `json:"content"`
}
