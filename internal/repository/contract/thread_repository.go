package contract

import (
	"context"

	"mistral-thing-be/internal/entity"
	"mistral-thing-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ThreadRepository interface {
	Create(ctx context.Context, thread *entity.Thread) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.ThreadStatus) error
	// TransitionStatus moves the thread to `to` only if its current status is
	// one of `from`. It reports whether the row changed.
	TransitionStatus(ctx context.Context, id uuid.UUID, from []entity.ThreadStatus, to entity.ThreadStatus) (bool, error)
	UpdateTitle(ctx context.Context, id uuid.UUID, title string) error
	Touch(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Thread, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Thread, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
