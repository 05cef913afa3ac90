package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"mechat/internal/domain"
	"mechat/internal/domain/models"
	"mechat/internal/domain/repositories"
	"mechat/internal/domain/services"
)

// UserPreferencesService implements services.UserPreferencesService
type UserPreferencesService struct {
	prefsRepo repositories.UserPreferencesRepository
	logger    *slog.Logger
}

// NewUserPreferencesService creates a new user preferences service
func NewUserPreferencesService(
	prefsRepo repositories.UserPreferencesRepository,
	logger *slog.Logger,
) services.UserPreferencesService {
	return &UserPreferencesService{
		prefsRepo: prefsRepo,
		logger:    logger,
	}
}

func defaultPreferences(userID uuid.UUID) *models.UserPreferences {
	now := time.Now()
	return &models.UserPreferences{
		UserID: userID,
		Preferences: models.JSONMap{
			"ui": map[string]interface{}{
				"theme": models.ThemeLight,
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// GetPreferences retrieves preferences for a user
func (s *UserPreferencesService) GetPreferences(ctx context.Context, userID uuid.UUID) (*models.UserPreferences, error) {
	prefs, err := s.prefsRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}
	if prefs == nil {
		s.logger.Debug("no preferences found, returning defaults", "user_id", userID)
		return defaultPreferences(userID), nil
	}
	return prefs, nil
}

// UpdatePreferences applies the namespaces present in req and persists the result
func (s *UserPreferencesService) UpdatePreferences(ctx context.Context, userID uuid.UUID, req *models.UpdatePreferencesRequest) (*models.UserPreferences, error) {
	if err := validateUpdatePreferences(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	existing, err := s.prefsRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get existing preferences: %w", err)
	}
	if existing == nil {
		existing = defaultPreferences(userID)
	}

	if req.UI != nil {
		if err := existing.SetUI(req.UI); err != nil {
			return nil, fmt.Errorf("update ui namespace: %w", err)
		}
	}

	existing.UpdatedAt = time.Now()
	if err := s.prefsRepo.Upsert(ctx, existing); err != nil {
		return nil, fmt.Errorf("upsert preferences: %w", err)
	}

	s.logger.Info("user preferences updated",
		"user_id", userID,
		"has_ui", req.UI != nil,
	)

	return existing, nil
}

func validateUpdatePreferences(req *models.UpdatePreferencesRequest) error {
	if req.UI == nil {
		return nil
	}
	return validation.ValidateStruct(req.UI,
		validation.Field(&req.UI.Theme,
			validation.Required,
			validation.In(models.ThemeLight, models.ThemeDark),
		),
	)
}
