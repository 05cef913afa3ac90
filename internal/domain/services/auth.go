package services

import "context"

// ResourceAuthorizer checks whether a user may act on a resource.
// Services call it before mutating; it returns domain.ErrForbidden on denial.
type ResourceAuthorizer interface {
	// CanEditPrompt allows only the prompt's author.
	CanEditPrompt(ctx context.Context, userID, promptID string) error

	// CanAccessAttachment allows only the user who uploaded the file.
	CanAccessAttachment(ctx context.Context, userID, key string) error
}
