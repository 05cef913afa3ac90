package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"mechat/internal/domain"
	"mechat/internal/domain/models"
	"mechat/internal/domain/repositories"
)

// PostgresChatSessionRepository implements repositories.ChatSessionRepository
type PostgresChatSessionRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewChatSessionRepository creates a new PostgresChatSessionRepository
func NewChatSessionRepository(config *RepositoryConfig) repositories.ChatSessionRepository {
	return &PostgresChatSessionRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// CreateSession inserts a new session
func (r *PostgresChatSessionRepository) CreateSession(ctx context.Context, session *models.ChatSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = session.CreatedAt

	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, title, chat_mode, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.tables.ChatSessions)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		session.ID,
		session.UserID,
		session.Title,
		session.ChatMode,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		if IsPgDuplicateError(err) {
			return fmt.Errorf("session %s: %w", session.ID, domain.ErrConflict)
		}
		return fmt.Errorf("create chat session: %w", err)
	}

	r.logger.Debug("chat session created", "session_id", session.ID, "user_id", session.UserID)
	return nil
}

// GetSession retrieves a session and its messages in append order
func (r *PostgresChatSessionRepository) GetSession(ctx context.Context, sessionID, userID string) (*models.ChatSession, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, title, chat_mode, created_at, updated_at
		FROM %s
		WHERE id = $1 AND user_id = $2
	`, r.tables.ChatSessions)

	var session models.ChatSession
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, sessionID, userID).Scan(
		&session.ID,
		&session.UserID,
		&session.Title,
		&session.ChatMode,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) || IsPgInvalidTextError(err) {
			return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get chat session: %w", err)
	}

	messages, err := r.listMessages(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	session.Messages = messages
	session.MessageCount = len(messages)

	return &session, nil
}

func (r *PostgresChatSessionRepository) listMessages(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	query := fmt.Sprintf(`
		SELECT id, session_id, role, content, sources, attachment, is_error, created_at
		FROM %s
		WHERE session_id = $1
		ORDER BY position ASC
	`, r.tables.ChatMessages)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	messages := []models.ChatMessage{}
	for rows.Next() {
		var msg models.ChatMessage
		if err := rows.Scan(
			&msg.ID,
			&msg.SessionID,
			&msg.Role,
			&msg.Content,
			&msg.Sources,
			&msg.Attachment,
			&msg.Error,
			&msg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat messages: %w", err)
	}

	return messages, nil
}

// ListSessions retrieves a user's sessions, most recently updated first
func (r *PostgresChatSessionRepository) ListSessions(ctx context.Context, userID string) ([]models.ChatSession, error) {
	query := fmt.Sprintf(`
		SELECT s.id, s.user_id, s.title, s.chat_mode, s.created_at, s.updated_at, COUNT(m.id)
		FROM %s s
		LEFT JOIN %s m ON m.session_id = s.id
		WHERE s.user_id = $1
		GROUP BY s.id
		ORDER BY s.updated_at DESC, s.id ASC
	`, r.tables.ChatSessions, r.tables.ChatMessages)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list chat sessions: %w", err)
	}
	defer rows.Close()

	sessions := []models.ChatSession{}
	for rows.Next() {
		var s models.ChatSession
		if err := rows.Scan(
			&s.ID,
			&s.UserID,
			&s.Title,
			&s.ChatMode,
			&s.CreatedAt,
			&s.UpdatedAt,
			&s.MessageCount,
		); err != nil {
			return nil, fmt.Errorf("scan chat session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat sessions: %w", err)
	}

	return sessions, nil
}

// AppendMessage adds msg after the session's last message and bumps updated_at.
// Ownership check, touch and insert happen in one statement.
func (r *PostgresChatSessionRepository) AppendMessage(ctx context.Context, userID string, msg *models.ChatMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	if msg.Sources == nil {
		msg.Sources = []models.Source{}
	}

	query := fmt.Sprintf(`
		WITH owner AS (
			UPDATE %[1]s SET updated_at = $8
			WHERE id = $2 AND user_id = $9
			RETURNING id
		)
		INSERT INTO %[2]s (id, session_id, position, role, content, sources, attachment, is_error, created_at)
		SELECT $1, owner.id,
			COALESCE((SELECT MAX(position) + 1 FROM %[2]s WHERE session_id = owner.id), 0),
			$3, $4, $5, $6, $7, $8
		FROM owner
		RETURNING position
	`, r.tables.ChatSessions, r.tables.ChatMessages)

	var position int
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		msg.ID,
		msg.SessionID,
		msg.Role,
		msg.Content,
		msg.Sources,
		msg.Attachment,
		msg.Error,
		msg.CreatedAt,
		userID,
	).Scan(&position)
	if err != nil {
		switch {
		case IsPgNoRowsError(err), IsPgInvalidTextError(err):
			return fmt.Errorf("session %s: %w", msg.SessionID, domain.ErrNotFound)
		case IsPgDuplicateError(err):
			return fmt.Errorf("append to session %s: %w", msg.SessionID, domain.ErrConflict)
		}
		return fmt.Errorf("append chat message: %w", err)
	}

	r.logger.Debug("chat message appended",
		"session_id", msg.SessionID,
		"message_id", msg.ID,
		"role", msg.Role,
		"position", position,
	)
	return nil
}
