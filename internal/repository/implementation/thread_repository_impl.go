package implementation

import (
	"context"
	"errors"
	"time"

	"mistral-thing-be/internal/entity"
	"mistral-thing-be/internal/mapper"
	"mistral-thing-be/internal/model"
	"mistral-thing-be/internal/repository/contract"
	"mistral-thing-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ThreadRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ThreadMapper
}

func NewThreadRepository(db *gorm.DB) contract.ThreadRepository {
	return &ThreadRepositoryImpl{
		db:     db,
		mapper: mapper.NewThreadMapper(),
	}
}

func (r *ThreadRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ThreadRepositoryImpl) Create(ctx context.Context, thread *entity.Thread) error {
	m := r.mapper.ThreadToModel(thread)
	if err := r.db.WithContext(ctx).Omit("Messages").Create(m).Error; err != nil {
		return err
	}
	*thread = *r.mapper.ThreadToEntity(m)
	return nil
}

// updateLive only ever touches a live row. Zero rows means the thread is
// gone, and the write must not bring it back.
func (r *ThreadRepositoryImpl) updateLive(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	res := r.db.WithContext(ctx).Model(&model.Thread{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return contract.ErrGone
	}
	return nil
}

func (r *ThreadRepositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.ThreadStatus) error {
	return r.updateLive(ctx, id, map[string]interface{}{"status": string(status)})
}

func (r *ThreadRepositoryImpl) TransitionStatus(ctx context.Context, id uuid.UUID, from []entity.ThreadStatus, to entity.ThreadStatus) (bool, error) {
	query := specification.ByStatus{Statuses: from}.Apply(
		r.db.WithContext(ctx).Model(&model.Thread{}).Where("id = ?", id),
	)
	res := query.Updates(map[string]interface{}{
		"status":     string(to),
		"updated_at": time.Now(),
	})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *ThreadRepositoryImpl) UpdateTitle(ctx context.Context, id uuid.UUID, title string) error {
	return r.updateLive(ctx, id, map[string]interface{}{"title": title})
}

func (r *ThreadRepositoryImpl) Touch(ctx context.Context, id uuid.UUID) error {
	return r.updateLive(ctx, id, map[string]interface{}{})
}

func (r *ThreadRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Thread{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return contract.ErrGone
	}
	return nil
}

func (r *ThreadRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Thread, error) {
	var m model.Thread
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ThreadToEntity(&m), nil
}

func (r *ThreadRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Thread, error) {
	var models []*model.Thread
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Thread, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ThreadToEntity(m)
	}
	return entities, nil
}

func (r *ThreadRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Thread{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
