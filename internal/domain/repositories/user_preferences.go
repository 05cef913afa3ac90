package repositories

import (
	"context"

	"github.com/google/uuid"

	"mechat/internal/domain/models"
)

// UserPreferencesRepository defines data access for per-user settings
type UserPreferencesRepository interface {
	// GetByUserID returns nil, nil when the user has not saved anything yet
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserPreferences, error)

	// Upsert creates or replaces the user's preferences row
	Upsert(ctx context.Context, prefs *models.UserPreferences) error
}
