package service

import (
	"context"
	"fmt"
	"strings"

	"mistral-thing-be/internal/constant"
	"mistral-thing-be/internal/dto"
	"mistral-thing-be/internal/entity"
	"mistral-thing-be/internal/repository/specification"
	"mistral-thing-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type ISettingsService interface {
	Get(ctx context.Context, userId uuid.UUID) (*dto.SettingsResponse, error)
	Update(ctx context.Context, userId uuid.UUID, req *dto.UpdateSettingsRequest) (*dto.SettingsResponse, error)
	// CreateDefaults is idempotent; it runs when the auth service announces a user.
	CreateDefaults(ctx context.Context, userId uuid.UUID) error
	DeleteForUser(ctx context.Context, userId uuid.UUID) error
}

type settingsService struct {
	uowFactory   unitofwork.RepositoryFactory
	defaultModel string
}

func NewSettingsService(uowFactory unitofwork.RepositoryFactory, defaultModel string) ISettingsService {
	if defaultModel == "" {
		defaultModel = constant.DefaultModel
	}
	return &settingsService{
		uowFactory:   uowFactory,
		defaultModel: defaultModel,
	}
}

func defaultSettings(userId uuid.UUID, modelId string) *entity.Settings {
	pinned := make([]string, len(constant.DefaultPinnedModels))
	copy(pinned, constant.DefaultPinnedModels)
	return &entity.Settings{
		Id:           uuid.New(),
		UserId:       userId,
		Mode:         constant.DefaultMode,
		Theme:        constant.DefaultTheme,
		ModelId:      modelId,
		PinnedModels: pinned,
	}
}

// loadOrCreate returns the user's settings row, creating the defaults for
// users that signed up before this service saw their USER_CREATED event.
func (s *settingsService) loadOrCreate(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID) (*entity.Settings, error) {
	settings, err := uow.SettingsRepository().FindOne(ctx, specification.UserOwnedBy{UserID: userId})
	if err != nil {
		return nil, err
	}
	if settings != nil {
		return settings, nil
	}

	if err := uow.SettingsRepository().Create(ctx, defaultSettings(userId, s.defaultModel)); err != nil {
		return nil, err
	}
	settings, err = uow.SettingsRepository().FindOne(ctx, specification.UserOwnedBy{UserID: userId})
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return nil, fmt.Errorf("settings for user %s missing after create", userId)
	}
	return settings, nil
}

func (s *settingsService) Get(ctx context.Context, userId uuid.UUID) (*dto.SettingsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	settings, err := s.loadOrCreate(ctx, uow, userId)
	if err != nil {
		return nil, err
	}
	return dto.NewSettingsResponse(settings), nil
}

func (s *settingsService) Update(ctx context.Context, userId uuid.UUID, req *dto.UpdateSettingsRequest) (*dto.SettingsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	settings, err := s.loadOrCreate(ctx, uow, userId)
	if err != nil {
		return nil, err
	}

	applySettingsUpdate(settings, req)

	if err := uow.SettingsRepository().Update(ctx, settings); err != nil {
		return nil, err
	}
	updated, err := uow.SettingsRepository().FindOne(ctx, specification.UserOwnedBy{UserID: userId})
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return dto.NewSettingsResponse(updated), nil
}

func applySettingsUpdate(settings *entity.Settings, req *dto.UpdateSettingsRequest) {
	if req.Mode != nil {
		settings.Mode = *req.Mode
	}
	if req.Theme != nil {
		settings.Theme = *req.Theme
	}
	if req.Nickname != nil {
		settings.Nickname = optionalText(*req.Nickname)
	}
	if req.Biography != nil {
		settings.Biography = optionalText(*req.Biography)
	}
	if req.Instructions != nil {
		settings.Instructions = optionalText(*req.Instructions)
	}
	if req.ModelId != nil {
		if v := strings.TrimSpace(*req.ModelId); v != "" {
			settings.ModelId = v
		}
	}
	if req.PinnedModels != nil {
		settings.PinnedModels = req.PinnedModels
	}
}

// optionalText stores blank input as "not set".
func optionalText(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func (s *settingsService) CreateDefaults(ctx context.Context, userId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.SettingsRepository().Create(ctx, defaultSettings(userId, s.defaultModel))
}

func (s *settingsService) DeleteForUser(ctx context.Context, userId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.SettingsRepository().DeleteByUserId(ctx, userId)
}
