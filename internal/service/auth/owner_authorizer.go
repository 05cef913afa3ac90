package auth

import (
	"context"
	"errors"
	"fmt"

	"mechat/internal/domain"
	"mechat/internal/domain/repositories"
	"mechat/internal/storage"
)

// OwnerBasedAuthorizer grants access to the user who created a resource.
type OwnerBasedAuthorizer struct {
	promptRepo repositories.PromptRepository
}

// NewOwnerBasedAuthorizer creates a new ownership-based authorizer
func NewOwnerBasedAuthorizer(promptRepo repositories.PromptRepository) *OwnerBasedAuthorizer {
	return &OwnerBasedAuthorizer{promptRepo: promptRepo}
}

// CanEditPrompt checks the prompt's authorId against userID
func (a *OwnerBasedAuthorizer) CanEditPrompt(ctx context.Context, userID, promptID string) error {
	prompt, err := a.promptRepo.GetPrompt(ctx, promptID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("check prompt access: %w", err)
	}
	if prompt.AuthorID == "" || prompt.AuthorID != userID {
		return fmt.Errorf("only the author can edit prompt %s: %w", promptID, domain.ErrForbidden)
	}
	return nil
}

// CanAccessAttachment checks the key lives under the user's upload prefix
func (a *OwnerBasedAuthorizer) CanAccessAttachment(_ context.Context, userID, key string) error {
	if userID == "" || !storage.OwnsKey(userID, key) {
		return fmt.Errorf("access denied to file %s: %w", key, domain.ErrForbidden)
	}
	return nil
}
