package mapper

import (
	"time"

	"mistral-thing-be/internal/entity"
	"mistral-thing-be/internal/model"

	"gorm.io/datatypes"
)

type SettingsMapper struct{}

func NewSettingsMapper() *SettingsMapper {
	return &SettingsMapper{}
}

func (m *SettingsMapper) ToEntity(s *model.Settings) *entity.Settings {
	if s == nil {
		return nil
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		u := s.UpdatedAt
		updatedAt = &u
	}

	pinned := make([]string, len(s.PinnedModels))
	copy(pinned, s.PinnedModels)

	return &entity.Settings{
		Id:           s.Id,
		UserId:       s.UserId,
		Mode:         s.Mode,
		Theme:        s.Theme,
		Nickname:     s.Nickname,
		Biography:    s.Biography,
		Instructions: s.Instructions,
		ModelId:      s.ModelId,
		PinnedModels: pinned,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    updatedAt,
	}
}

func (m *SettingsMapper) ToModel(s *entity.Settings) *model.Settings {
	if s == nil {
		return nil
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	pinned := s.PinnedModels
	if pinned == nil {
		pinned = []string{}
	}

	return &model.Settings{
		Id:           s.Id,
		UserId:       s.UserId,
		Mode:         s.Mode,
		Theme:        s.Theme,
		Nickname:     s.Nickname,
		Biography:    s.Biography,
		Instructions: s.Instructions,
		ModelId:      s.ModelId,
		PinnedModels: datatypes.JSONSlice[string](pinned),
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    updatedAt,
	}
}
