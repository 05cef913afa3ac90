package services

import (
	"context"

	"mechat/internal/domain/models"
)

// ChatService defines the business logic for chat sessions
type ChatService interface {
	// CreateSession starts an empty session. Blank titles become "New chat".
	CreateSession(ctx context.Context, req *CreateSessionRequest) (*models.ChatSession, error)

	// GetSession returns a session with its messages
	GetSession(ctx context.Context, sessionID, userID string) (*models.ChatSession, error)

	// ListSessions returns the user's sessions without messages
	ListSessions(ctx context.Context, userID string) ([]models.ChatSession, error)

	// SendMessage stores the user's message, forwards it to the webhook backend
	// and stores the normalized reply. When the backend fails the result still
	// carries the session and an error-flagged assistant message, and the
	// returned error satisfies errors.Is(err, domain.ErrBackend).
	SendMessage(ctx context.Context, req *SendMessageRequest) (*SendMessageResult, error)

	// ExportSession renders a session as a .docx document
	ExportSession(ctx context.Context, sessionID, userID string) (*ExportResult, error)
}

// CreateSessionRequest is the DTO for creating an empty session
type CreateSessionRequest struct {
	UserID   string          `json:"-"`
	Title    string          `json:"title"`
	ChatMode models.ChatMode `json:"chat_mode"`
}

// UploadedFile is an attachment held in memory for the duration of a send
type UploadedFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// SendMessageRequest is the DTO for sending a message.
// An empty SessionID creates a new session.
type SendMessageRequest struct {
	UserID    string          `json:"-"`
	SessionID string          `json:"-"`
	Message   string          `json:"message"`
	ChatMode  models.ChatMode `json:"chat_mode"`
	File      *UploadedFile   `json:"-"`
}

// SendMessageResult is the outcome of a send
type SendMessageResult struct {
	Session          *models.ChatSession `json:"session"`
	UserMessage      *models.ChatMessage `json:"user_message"`
	AssistantMessage *models.ChatMessage `json:"assistant_message"`
	Shape            models.ShapeTag     `json:"shape,omitempty"`
}

// ExportResult is a rendered document ready for download
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}
