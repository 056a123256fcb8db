package contract

import (
	"context"

	"mistral-thing-be/internal/entity"
	"mistral-thing-be/internal/repository/specification"

	"github.com/google/uuid"
)

type SettingsRepository interface {
	Create(ctx context.Context, settings *entity.Settings) error
	Update(ctx context.Context, settings *entity.Settings) error
	DeleteByUserId(ctx context.Context, userId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Settings, error)
}
