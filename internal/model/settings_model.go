package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Settings struct {
	Id           uuid.UUID                   `gorm:"type:uuid;primaryKey"`
	UserId       uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex"`
	Mode         string                      `gorm:"type:varchar(10);not null"`
	Theme        string                      `gorm:"type:varchar(50);not null"`
	Nickname     *string                     `gorm:"type:varchar(50)"`
	Biography    *string                     `gorm:"type:text"`
	Instructions *string                     `gorm:"type:text"`
	ModelId      string                      `gorm:"type:varchar(100);not null"`
	PinnedModels datatypes.JSONSlice[string] `gorm:"not null"`
	CreatedAt    time.Time                   `gorm:"autoCreateTime"`
	UpdatedAt    time.Time                   `gorm:"autoUpdateTime"`
}

func (Settings) TableName() string {
	return "settings"
}

func (s *Settings) BeforeCreate(tx *gorm.DB) error {
	if s.Id == uuid.Nil {
		s.Id = uuid.New()
	}
	return nil
}
