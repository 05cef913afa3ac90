package services

import (
	"context"

	"mechat/internal/domain/models"
)

// PromptService defines the prompt library operations
type PromptService interface {
	// ListPrompts returns the prompts shown on a library tab, annotated with
	// favorite counts and the caller's favorite flags
	ListPrompts(ctx context.Context, userID string, tab models.PromptTab) ([]models.PromptListItem, error)

	// CreatePrompt stores a new prompt authored by the caller
	CreatePrompt(ctx context.Context, author Author, req *PromptInput) (*models.Prompt, error)

	// UpdatePrompt replaces a prompt; only its author may do so
	UpdatePrompt(ctx context.Context, author Author, promptID string, req *PromptInput) (*models.Prompt, error)

	// ListFavorites returns the caller's favorite prompt ids, sorted
	ListFavorites(ctx context.Context, userID string) ([]string, error)

	AddFavorite(ctx context.Context, userID, promptID string) error
	RemoveFavorite(ctx context.Context, userID, promptID string) error

	// SeedPrompts writes the built-in recommended prompts when the store is
	// empty and reports how many were written
	SeedPrompts(ctx context.Context) (int, error)
}

// Author identifies the caller creating or editing a prompt
type Author struct {
	ID   string
	Name string
}

// PromptInput is the DTO for creating or replacing a prompt
type PromptInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	PromptText  string `json:"promptText"`
	Tag         string `json:"tag"`
	IsPublic    bool   `json:"isPublic"`
}
