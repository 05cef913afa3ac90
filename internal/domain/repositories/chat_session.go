package repositories

import (
	"context"

	"mechat/internal/domain/models"
)

// ChatSessionRepository defines data access for chat sessions and their messages.
// Every read and write is scoped to the owning user.
type ChatSessionRepository interface {
	// CreateSession inserts a new session and fills ID and timestamps.
	CreateSession(ctx context.Context, session *models.ChatSession) error

	// GetSession retrieves a session with its messages in append order.
	// Returns domain.ErrNotFound if missing or owned by another user.
	GetSession(ctx context.Context, sessionID, userID string) (*models.ChatSession, error)

	// ListSessions retrieves a user's sessions, most recently updated first.
	// Messages are not loaded; MessageCount is set.
	ListSessions(ctx context.Context, userID string) ([]models.ChatSession, error)

	// AppendMessage adds a message at the end of the session and bumps its updated_at.
	// Returns domain.ErrNotFound if the session is missing or owned by another user.
	AppendMessage(ctx context.Context, userID string, msg *models.ChatMessage) error
}
