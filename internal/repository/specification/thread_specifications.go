package specification

import (
	"time"

	"mistral-thing-be/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserOwnedBy struct {
	UserID uuid.UUID
}

func (s UserOwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

type BySlug struct {
	Slug string
}

func (s BySlug) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("slug = ?", s.Slug)
}

type ByThreadID struct {
	ThreadID uuid.UUID
}

func (s ByThreadID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("thread_id = ?", s.ThreadID)
}

// Finalized excludes the pending assistant message so a model is never fed
// its own partial output.
type Finalized struct{}

func (s Finalized) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_streaming = ?", false)
}

type Streaming struct{}

func (s Streaming) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_streaming = ?", true)
}

type ByStatus struct {
	Statuses []entity.ThreadStatus
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	values := make([]string, len(s.Statuses))
	for i, st := range s.Statuses {
		values[i] = string(st)
	}
	return db.Where("status IN ?", values)
}

type UpdatedBefore struct {
	Time time.Time
}

func (s UpdatedBefore) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("updated_at < ?", s.Time)
}
