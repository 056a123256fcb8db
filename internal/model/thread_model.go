package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Thread struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey"`
	UserId    uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:idx_threads_user_slug"`
	Title     string         `gorm:"type:text"`
	Slug      string         `gorm:"type:varchar(255);not null;uniqueIndex:idx_threads_user_slug"`
	Status    string         `gorm:"type:varchar(20);not null;default:'ready'"`
	ModelId   string         `gorm:"type:varchar(100);not null"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime;index"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
	Messages  []Message      `gorm:"foreignKey:ThreadId;constraint:OnDelete:CASCADE"`
}

func (Thread) TableName() string {
	return "threads"
}

func (t *Thread) BeforeCreate(tx *gorm.DB) error {
	if t.Id == uuid.Nil {
		t.Id = uuid.New()
	}
	return nil
}
