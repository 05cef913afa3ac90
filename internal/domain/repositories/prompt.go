package repositories

import (
	"context"

	"mechat/internal/domain/models"
)

// PromptRepository is the prompt library and favorites store.
type PromptRepository interface {
	// ListPrompts returns every prompt with ID set.
	ListPrompts(ctx context.Context) ([]models.Prompt, error)

	// GetPrompt returns domain.ErrNotFound for an unknown id.
	GetPrompt(ctx context.Context, id string) (*models.Prompt, error)

	// CreatePrompt stores p and returns its generated id.
	CreatePrompt(ctx context.Context, p models.Prompt) (string, error)

	// UpdatePrompt replaces the prompt stored under id.
	UpdatePrompt(ctx context.Context, id string, p models.Prompt) error

	// ListFavorites returns the ids the user marked, never nil.
	ListFavorites(ctx context.Context, userID string) (map[string]bool, error)

	AddFavorite(ctx context.Context, userID, promptID string) error
	RemoveFavorite(ctx context.Context, userID, promptID string) error

	// FavoriteCounts returns how many users favorited each prompt.
	FavoriteCounts(ctx context.Context) (map[string]int, error)
}
