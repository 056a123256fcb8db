package contract

import (
	"context"

	"mistral-thing-be/internal/entity"
	"mistral-thing-be/internal/repository/specification"

	"github.com/google/uuid"
)

type MessageRepository interface {
	// Create appends the message at the end of its thread, assigning Seq.
	Create(ctx context.Context, message *entity.Message) error
	// Patch rewrites content in place. It never inserts.
	Patch(ctx context.Context, id uuid.UUID, content string, isStreaming bool) error
	DeleteByThreadId(ctx context.Context, threadId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Message, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
