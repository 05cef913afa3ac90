package chat

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"mechat/internal/domain"
	"mechat/internal/domain/models"
	"mechat/internal/domain/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memorySessionRepo is an in-memory ChatSessionRepository.
type memorySessionRepo struct {
	mu        sync.Mutex
	sessions  map[string]*models.ChatSession
	messages  map[string][]models.ChatMessage
	failWrite error
}

func newMemorySessionRepo() *memorySessionRepo {
	return &memorySessionRepo{
		sessions: map[string]*models.ChatSession{},
		messages: map[string][]models.ChatMessage{},
	}
}

func (m *memorySessionRepo) CreateSession(_ context.Context, session *models.ChatSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite != nil {
		return m.failWrite
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	session.UpdatedAt = session.CreatedAt
	copied := *session
	m.sessions[session.ID] = &copied
	return nil
}

func (m *memorySessionRepo) GetSession(_ context.Context, sessionID, userID string) (*models.ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok || s.UserID != userID {
		return nil, domain.ErrNotFound
	}
	copied := *s
	copied.Messages = append([]models.ChatMessage{}, m.messages[sessionID]...)
	copied.MessageCount = len(copied.Messages)
	return &copied, nil
}

func (m *memorySessionRepo) ListSessions(_ context.Context, userID string) ([]models.ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.ChatSession{}
	for _, s := range m.sessions {
		if s.UserID == userID {
			copied := *s
			copied.MessageCount = len(m.messages[s.ID])
			out = append(out, copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (m *memorySessionRepo) AppendMessage(_ context.Context, userID string, msg *models.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite != nil {
		return m.failWrite
	}
	s, ok := m.sessions[msg.SessionID]
	if !ok || s.UserID != userID {
		return domain.ErrNotFound
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	m.messages[msg.SessionID] = append(m.messages[msg.SessionID], *msg)
	s.UpdatedAt = msg.CreatedAt
	return nil
}

// passthroughTx runs fn directly; the memory repo has no transactions.
type passthroughTx struct{ calls int }

func (p *passthroughTx) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	p.calls++
	return fn(ctx)
}
