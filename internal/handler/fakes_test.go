package handler

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"mechat/internal/domain"
	"mechat/internal/domain/models"
	"mechat/internal/domain/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeChatService records the last send and returns canned results.
type fakeChatService struct {
	lastSend   *services.SendMessageRequest
	lastCreate *services.CreateSessionRequest
	sendResult *services.SendMessageResult
	sendErr    error
	sessions   map[string]*models.ChatSession
	export     *services.ExportResult
}

func newFakeChatService() *fakeChatService {
	return &fakeChatService{sessions: map[string]*models.ChatSession{}}
}

func (f *fakeChatService) CreateSession(_ context.Context, req *services.CreateSessionRequest) (*models.ChatSession, error) {
	f.lastCreate = req
	s := &models.ChatSession{ID: fmt.Sprintf("s%d", len(f.sessions)+1), UserID: req.UserID, Title: req.Title, ChatMode: req.ChatMode}
	f.sessions[s.ID] = s
	return s, nil
}

func (f *fakeChatService) GetSession(_ context.Context, sessionID, userID string) (*models.ChatSession, error) {
	s, ok := f.sessions[sessionID]
	if !ok || s.UserID != userID {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}
	return s, nil
}

func (f *fakeChatService) ListSessions(_ context.Context, userID string) ([]models.ChatSession, error) {
	out := []models.ChatSession{}
	for _, s := range f.sessions {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeChatService) SendMessage(_ context.Context, req *services.SendMessageRequest) (*services.SendMessageResult, error) {
	f.lastSend = req
	return f.sendResult, f.sendErr
}

func (f *fakeChatService) ExportSession(_ context.Context, sessionID, userID string) (*services.ExportResult, error) {
	if _, err := f.GetSession(context.Background(), sessionID, userID); err != nil {
		return nil, err
	}
	return f.export, nil
}

// fakePromptService records calls and returns canned results.
type fakePromptService struct {
	lastTab    models.PromptTab
	lastAuthor services.Author
	lastInput  *services.PromptInput
	updateErr  error
	favorites  map[string]bool
}

func (f *fakePromptService) ListPrompts(_ context.Context, _ string, tab models.PromptTab) ([]models.PromptListItem, error) {
	f.lastTab = tab
	if tab == "bogus" {
		return nil, fmt.Errorf("%w: tab", domain.ErrValidation)
	}
	return []models.PromptListItem{{Prompt: models.Prompt{ID: "p1", Title: "Summarize"}, FavoriteCount: 2}}, nil
}

func (f *fakePromptService) CreatePrompt(_ context.Context, author services.Author, req *services.PromptInput) (*models.Prompt, error) {
	f.lastAuthor, f.lastInput = author, req
	return &models.Prompt{ID: "new", Title: req.Title, AuthorID: author.ID, Author: author.Name}, nil
}

func (f *fakePromptService) UpdatePrompt(_ context.Context, author services.Author, promptID string, req *services.PromptInput) (*models.Prompt, error) {
	f.lastAuthor, f.lastInput = author, req
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &models.Prompt{ID: promptID, Title: req.Title, AuthorID: author.ID}, nil
}

func (f *fakePromptService) ListFavorites(context.Context, string) ([]string, error) {
	ids := []string{}
	for id := range f.favorites {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakePromptService) AddFavorite(_ context.Context, _, promptID string) error {
	f.favorites[promptID] = true
	return nil
}

func (f *fakePromptService) RemoveFavorite(_ context.Context, _, promptID string) error {
	delete(f.favorites, promptID)
	return nil
}

func (f *fakePromptService) SeedPrompts(context.Context) (int, error) { return 0, nil }
