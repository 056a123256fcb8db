package implementation

import (
	"context"
	"errors"
	"time"

	"mistral-thing-be/internal/entity"
	"mistral-thing-be/internal/mapper"
	"mistral-thing-be/internal/model"
	"mistral-thing-be/internal/repository/contract"
	"mistral-thing-be/internal/repository/scope"
	"mistral-thing-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ThreadMapper
}

func NewMessageRepository(db *gorm.DB) contract.MessageRepository {
	return &MessageRepositoryImpl{
		db:     db,
		mapper: mapper.NewThreadMapper(),
	}
}

func (r *MessageRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *MessageRepositoryImpl) nextSeq(ctx context.Context, threadId uuid.UUID) (int64, error) {
	var maxSeq int64
	err := r.db.WithContext(ctx).
		Scopes(scope.WithSoftDelete).
		Model(&model.Message{}).
		Where("thread_id = ?", threadId).
		Select("COALESCE(MAX(seq), 0)").
		Scan(&maxSeq).Error
	if err != nil {
		return 0, err
	}
	return maxSeq + 1, nil
}

func (r *MessageRepositoryImpl) Create(ctx context.Context, message *entity.Message) error {
	seq, err := r.nextSeq(ctx, message.ThreadId)
	if err != nil {
		return err
	}
	message.Seq = seq

	m := r.mapper.MessageToModel(message)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*message = *r.mapper.MessageToEntity(m)
	return nil
}

func (r *MessageRepositoryImpl) Patch(ctx context.Context, id uuid.UUID, content string, isStreaming bool) error {
	res := r.db.WithContext(ctx).
		Model(&model.Message{}).
		Where("id = ?", id).
		Where("is_streaming = ?", true).
		Updates(map[string]interface{}{
			"content":      content,
			"is_streaming": isStreaming,
			"updated_at":   time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return contract.ErrGone
	}
	return nil
}

func (r *MessageRepositoryImpl) DeleteByThreadId(ctx context.Context, threadId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("thread_id = ?", threadId).Delete(&model.Message{}).Error
}

func (r *MessageRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Message, error) {
	var m model.Message
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.MessageToEntity(&m), nil
}

// FindAll always returns messages in conversation order.
func (r *MessageRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error) {
	var models []*model.Message
	query := r.applySpecifications(r.db.WithContext(ctx), specs...).Scopes(scope.OrderBySeqAsc)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.MessagesToEntities(models), nil
}

func (r *MessageRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Message{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
