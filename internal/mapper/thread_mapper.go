package mapper

import (
	"time"

	"mistral-thing-be/internal/entity"
	"mistral-thing-be/internal/model"

	"gorm.io/gorm"
)

type ThreadMapper struct{}

func NewThreadMapper() *ThreadMapper {
	return &ThreadMapper{}
}

func (m *ThreadMapper) ThreadToEntity(t *model.Thread) *entity.Thread {
	if t == nil {
		return nil
	}

	var deletedAt *time.Time
	if t.DeletedAt.Valid {
		d := t.DeletedAt.Time
		deletedAt = &d
	}

	var updatedAt *time.Time
	if !t.UpdatedAt.IsZero() {
		u := t.UpdatedAt
		updatedAt = &u
	}

	return &entity.Thread{
		Id:        t.Id,
		UserId:    t.UserId,
		Title:     t.Title,
		Slug:      t.Slug,
		Status:    entity.ThreadStatus(t.Status),
		ModelId:   t.ModelId,
		CreatedAt: t.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
		IsDeleted: t.DeletedAt.Valid,
	}
}

func (m *ThreadMapper) ThreadToModel(t *entity.Thread) *model.Thread {
	if t == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if t.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *t.DeletedAt, Valid: true}
	} else if t.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if t.UpdatedAt != nil {
		updatedAt = *t.UpdatedAt
	}

	return &model.Thread{
		Id:        t.Id,
		UserId:    t.UserId,
		Title:     t.Title,
		Slug:      t.Slug,
		Status:    string(t.Status),
		ModelId:   t.ModelId,
		CreatedAt: t.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
	}
}

func (m *ThreadMapper) MessageToEntity(msg *model.Message) *entity.Message {
	if msg == nil {
		return nil
	}

	var deletedAt *time.Time
	if msg.DeletedAt.Valid {
		d := msg.DeletedAt.Time
		deletedAt = &d
	}

	var updatedAt *time.Time
	if !msg.UpdatedAt.IsZero() {
		u := msg.UpdatedAt
		updatedAt = &u
	}

	return &entity.Message{
		Id:          msg.Id,
		ThreadId:    msg.ThreadId,
		Role:        entity.MessageRole(msg.Role),
		Content:     msg.Content,
		IsStreaming: msg.IsStreaming,
		Seq:         msg.Seq,
		CreatedAt:   msg.CreatedAt,
		UpdatedAt:   updatedAt,
		DeletedAt:   deletedAt,
		IsDeleted:   msg.DeletedAt.Valid,
	}
}

func (m *ThreadMapper) MessageToModel(msg *entity.Message) *model.Message {
	if msg == nil {
		return nil
	}

	var updatedAt time.Time
	if msg.UpdatedAt != nil {
		updatedAt = *msg.UpdatedAt
	}

	return &model.Message{
		Id:          msg.Id,
		ThreadId:    msg.ThreadId,
		Seq:         msg.Seq,
		Role:        string(msg.Role),
		Content:     msg.Content,
		IsStreaming: msg.IsStreaming,
		CreatedAt:   msg.CreatedAt,
		UpdatedAt:   updatedAt,
	}
}

func (m *ThreadMapper) MessagesToEntities(models []*model.Message) []*entity.Message {
	entities := make([]*entity.Message, len(models))
	for i, msg := range models {
		entities[i] = m.MessageToEntity(msg)
	}
	return entities
}
