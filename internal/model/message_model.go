package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Message struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey"`
	ThreadId    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_messages_thread_seq"`
	Seq         int64          `gorm:"not null;uniqueIndex:idx_messages_thread_seq"`
	Role        string         `gorm:"type:varchar(20);not null"`
	Content     string         `gorm:"type:text;not null;default:''"`
	IsStreaming bool           `gorm:"not null;default:false"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (Message) TableName() string {
	return "messages"
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.Id == uuid.Nil {
		m.Id = uuid.New()
	}
	return nil
}
