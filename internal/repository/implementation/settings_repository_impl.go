package implementation

import (
	"context"
	"errors"

	"mistral-thing-be/internal/entity"
	"mistral-thing-be/internal/mapper"
	"mistral-thing-be/internal/model"
	"mistral-thing-be/internal/repository/contract"
	"mistral-thing-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingsRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SettingsMapper
}

func NewSettingsRepository(db *gorm.DB) contract.SettingsRepository {
	return &SettingsRepositoryImpl{
		db:     db,
		mapper: mapper.NewSettingsMapper(),
	}
}

func (r *SettingsRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

// Create is idempotent per user: a redelivered USER_CREATED event keeps the
// existing row.
func (r *SettingsRepositoryImpl) Create(ctx context.Context, settings *entity.Settings) error {
	m := r.mapper.ToModel(settings)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(m).Error
	if err != nil {
		return err
	}
	*settings = *r.mapper.ToEntity(m)
	return nil
}

func (r *SettingsRepositoryImpl) Update(ctx context.Context, settings *entity.Settings) error {
	m := r.mapper.ToModel(settings)
	res := r.db.WithContext(ctx).
		Model(&model.Settings{}).
		Where("user_id = ?", settings.UserId).
		Select("mode", "theme", "nickname", "biography", "instructions", "model_id", "pinned_models", "updated_at").
		Updates(m)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return contract.ErrGone
	}
	return nil
}

func (r *SettingsRepositoryImpl) DeleteByUserId(ctx context.Context, userId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userId).Delete(&model.Settings{}).Error
}

func (r *SettingsRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Settings, error) {
	var m model.Settings
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}
