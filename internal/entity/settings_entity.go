package entity

import (
	"time"

	"github.com/google/uuid"
)

type Settings struct {
	Id           uuid.UUID
	UserId       uuid.UUID
	Mode         string
	Theme        string
	Nickname     *string
	Biography    *string
	Instructions *string
	ModelId      string
	PinnedModels []string
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}
