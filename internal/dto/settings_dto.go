package dto

import (
	"time"

	"mistral-thing-be/internal/entity"
)

type SettingsResponse struct {
	Mode         string     `json:"mode"`
	Theme        string     `json:"theme"`
	Nickname     *string    `json:"nickname"`
	Biography    *string    `json:"biography"`
	Instructions *string    `json:"instructions"`
	ModelId      string     `json:"model_id"`
	PinnedModels []string   `json:"pinned_models"`
	UpdatedAt    *time.Time `json:"updated_at"`
}

// UpdateSettingsRequest is a partial update: nil fields (and an absent
// pinned_models) are left alone.
type UpdateSettingsRequest struct {
	Mode         *string  `json:"mode" validate:"omitempty,oneof=light dark"`
	Theme        *string  `json:"theme" validate:"omitempty,oneof=default t3-chat claymorphism claude graphite amethyst-haze vercel"`
	Nickname     *string  `json:"nickname" validate:"omitempty,max=50"`
	Biography    *string  `json:"biography" validate:"omitempty,max=500"`
	Instructions *string  `json:"instructions" validate:"omitempty,max=1000"`
	ModelId      *string  `json:"model_id" validate:"omitempty,min=1,max=100"`
	PinnedModels []string `json:"pinned_models" validate:"omitempty,max=20,dive,min=1,max=100"`
}

func NewSettingsResponse(s *entity.Settings) *SettingsResponse {
	pinned := s.PinnedModels
	if pinned == nil {
		pinned = []string{}
	}
	return &SettingsResponse{
		Mode:         s.Mode,
		Theme:        s.Theme,
		Nickname:     s.Nickname,
		Biography:    s.Biography,
		Instructions: s.Instructions,
		ModelId:      s.ModelId,
		PinnedModels: pinned,
		UpdatedAt:    s.UpdatedAt,
	}
}
