package services

import (
	"context"

	"github.com/google/uuid"

	"mechat/internal/domain/models"
)

// UserPreferencesService defines the business logic for user preferences
type UserPreferencesService interface {
	// GetPreferences returns defaults when the user has saved nothing yet
	GetPreferences(ctx context.Context, userID uuid.UUID) (*models.UserPreferences, error)

	// UpdatePreferences replaces only the namespaces present in req
	UpdatePreferences(ctx context.Context, userID uuid.UUID, req *models.UpdatePreferencesRequest) (*models.UserPreferences, error)
}
