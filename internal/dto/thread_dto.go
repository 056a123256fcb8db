package dto

import (
	"time"

	"mistral-thing-be/internal/entity"

	"github.com/google/uuid"
)

type CreateThreadRequest struct {
	ModelId string `json:"model_id" validate:"required,max=100"`
	Title   string `json:"title" validate:"max=200"`
}

type UpdateThreadRequest struct {
	Title  *string `json:"title" validate:"omitempty,min=1,max=200"`
	Status *string `json:"status" validate:"omitempty,oneof=ready submitted streaming error"`
}

type ThreadResponse struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	Slug      string     `json:"slug"`
	Status    string     `json:"status"`
	ModelId   string     `json:"model_id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type MessageResponse struct {
	Id          uuid.UUID  `json:"id"`
	ThreadId    uuid.UUID  `json:"thread_id"`
	Role        string     `json:"role"`
	Content     string     `json:"content"`
	IsStreaming bool       `json:"is_streaming"`
	Seq         int64      `json:"seq"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

type ThreadWithMessagesResponse struct {
	ThreadResponse
	Messages []*MessageResponse `json:"messages"`
}

func NewThreadResponse(t *entity.Thread) *ThreadResponse {
	return &ThreadResponse{
		Id:        t.Id,
		Title:     t.Title,
		Slug:      t.Slug,
		Status:    string(t.Status),
		ModelId:   t.ModelId,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func NewMessageResponse(m *entity.Message) *MessageResponse {
	return &MessageResponse{
		Id:          m.Id,
		ThreadId:    m.ThreadId,
		Role:        string(m.Role),
		Content:     m.Content,
		IsStreaming: m.IsStreaming,
		Seq:         m.Seq,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func NewMessageResponses(messages []*entity.Message) []*MessageResponse {
	res := make([]*MessageResponse, 0, len(messages))
	for _, m := range messages {
		res = append(res, NewMessageResponse(m))
	}
	return res
}
