// Package chat implements chat sessions: sending messages to the inference
// webhook, persisting the exchange and exporting it.
package chat

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"mechat/internal/config"
	"mechat/internal/domain"
	"mechat/internal/domain/models"
	"mechat/internal/domain/repositories"
	"mechat/internal/domain/services"
	"mechat/internal/inflight"
	"mechat/internal/storage"
	"mechat/internal/webhook"
)

const (
	// DefaultSessionTitle is used when nothing better can be derived.
	DefaultSessionTitle = "New chat"

	// BackendFailureMessage is stored as the assistant reply when the webhook fails.
	BackendFailureMessage = "Sorry, something went wrong while contacting the assistant. Please try again."
)

// Backend sends a message to the inference service and returns its normalized reply.
type Backend interface {
	Send(ctx context.Context, req webhook.ChatRequest, file *webhook.File) (models.NormalizedAnswer, error)
}

// chatService implements services.ChatService
type chatService struct {
	sessionRepo repositories.ChatSessionRepository
	txManager   repositories.TransactionManager
	backend     Backend
	guard       inflight.Guard
	files       storage.Storage
	location    *time.Location
	logger      *slog.Logger
}

// NewChatService creates a new chat service. location controls the times
// printed in exports; nil means UTC.
func NewChatService(
	sessionRepo repositories.ChatSessionRepository,
	txManager repositories.TransactionManager,
	backend Backend,
	guard inflight.Guard,
	files storage.Storage,
	location *time.Location,
	logger *slog.Logger,
) services.ChatService {
	if location == nil {
		location = time.UTC
	}
	return &chatService{
		sessionRepo: sessionRepo,
		txManager:   txManager,
		backend:     backend,
		guard:       guard,
		files:       files,
		location:    location,
		logger:      logger,
	}
}

// CreateSession creates an empty session
func (s *chatService) CreateSession(ctx context.Context, req *services.CreateSessionRequest) (*models.ChatSession, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.ChatMode == "" {
		req.ChatMode = models.DefaultChatMode
	}
	if err := validateCreateSession(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	title := req.Title
	if title == "" {
		title = DefaultSessionTitle
	}

	session := &models.ChatSession{
		UserID:   req.UserID,
		Title:    title,
		ChatMode: req.ChatMode,
	}
	if err := s.sessionRepo.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("chat session created",
		"session_id", session.ID,
		"user_id", session.UserID,
		"chat_mode", session.ChatMode,
	)
	return session, nil
}

// GetSession retrieves a session with its messages
func (s *chatService) GetSession(ctx context.Context, sessionID, userID string) (*models.ChatSession, error) {
	session, err := s.sessionRepo.GetSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	s.resolveAttachmentURLs(ctx, session.Messages)
	return session, nil
}

// ListSessions retrieves the user's sessions
func (s *chatService) ListSessions(ctx context.Context, userID string) ([]models.ChatSession, error) {
	return s.sessionRepo.ListSessions(ctx, userID)
}

// SendMessage runs one user turn end to end
func (s *chatService) SendMessage(ctx context.Context, req *services.SendMessageRequest) (*services.SendMessageResult, error) {
	req.Message = strings.TrimSpace(req.Message)
	if err := validateSendMessage(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	release, ok, err := s.guard.TryAcquire(ctx, guardKey(req.UserID, req.SessionID))
	if err != nil {
		return nil, fmt.Errorf("acquire in-flight guard: %w", err)
	}
	if !ok {
		return nil, domain.ErrRequestInFlight
	}
	defer release()

	var session *models.ChatSession
	if req.SessionID != "" {
		session, err = s.sessionRepo.GetSession(ctx, req.SessionID, req.UserID)
		if err != nil {
			return nil, err
		}
		session.Messages = nil
	}

	mode := req.ChatMode
	switch {
	case mode != "":
	case session != nil:
		mode = session.ChatMode
	default:
		mode = models.DefaultChatMode
	}

	attachment, err := s.storeAttachment(ctx, req.UserID, req.File)
	if err != nil {
		return nil, err
	}

	userMsg := &models.ChatMessage{
		Role:       models.RoleUser,
		Content:    req.Message,
		Attachment: attachment,
		CreatedAt:  time.Now().UTC(),
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if session == nil {
			session = &models.ChatSession{
				UserID:    req.UserID,
				Title:     deriveTitle(req.Message, req.File),
				ChatMode:  mode,
				CreatedAt: userMsg.CreatedAt,
			}
			if err := s.sessionRepo.CreateSession(txCtx, session); err != nil {
				return err
			}
		}
		userMsg.SessionID = session.ID
		return s.sessionRepo.AppendMessage(txCtx, req.UserID, userMsg)
	})
	if err != nil {
		s.discardAttachment(attachment)
		return nil, err
	}

	var file *webhook.File
	if req.File != nil {
		file = &webhook.File{Name: req.File.Name, ContentType: req.File.ContentType, Data: req.File.Data}
	}

	start := time.Now()
	answer, sendErr := s.backend.Send(ctx, webhook.ChatRequest{
		UserID:    req.UserID,
		SessionID: session.ID,
		ChatMode:  mode,
		Message:   req.Message,
	}, file)

	// The exchange is recorded even if the caller has gone away
	persistCtx := context.WithoutCancel(ctx)

	assistantMsg := &models.ChatMessage{
		SessionID: session.ID,
		Role:      models.RoleAssistant,
		CreatedAt: time.Now().UTC(),
	}
	if sendErr != nil {
		assistantMsg.Content = BackendFailureMessage
		assistantMsg.Error = true
		if !errors.Is(sendErr, domain.ErrBackend) {
			sendErr = fmt.Errorf("%w: %v", domain.ErrBackend, sendErr)
		}
	} else {
		assistantMsg.Content = answer.Answer
		assistantMsg.Sources = answer.Sources
	}

	if err := s.sessionRepo.AppendMessage(persistCtx, req.UserID, assistantMsg); err != nil {
		return nil, fmt.Errorf("store assistant reply: %w", err)
	}

	session.MessageCount += 2
	session.UpdatedAt = assistantMsg.CreatedAt

	result := &services.SendMessageResult{
		Session:          session,
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
		Shape:            answer.Shape,
	}

	if sendErr != nil {
		s.logger.Error("webhook call failed",
			"session_id", session.ID,
			"user_id", req.UserID,
			"chat_mode", mode,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", sendErr,
		)
		return result, sendErr
	}

	s.logger.Info("message answered",
		"session_id", session.ID,
		"user_id", req.UserID,
		"chat_mode", mode,
		"shape", answer.Shape,
		"sources", len(answer.Sources),
		"model_id", answer.ModelID,
		"has_attachment", attachment != nil,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

func (s *chatService) storeAttachment(ctx context.Context, userID string, f *services.UploadedFile) (*models.Attachment, error) {
	if f == nil {
		return nil, nil
	}

	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	kind := models.AttachmentFile
	if strings.HasPrefix(contentType, "image/") {
		kind = models.AttachmentImage
	}

	key := storage.AttachmentKey(userID, f.Name)
	size := int64(len(f.Data))
	if err := s.files.Write(ctx, key, bytes.NewReader(f.Data), size, contentType); err != nil {
		return nil, fmt.Errorf("store attachment: %w", err)
	}

	return &models.Attachment{
		Kind:        kind,
		Name:        f.Name,
		ContentType: contentType,
		Size:        size,
		Key:         key,
		URL:         s.attachmentURL(ctx, key),
	}, nil
}

func (s *chatService) discardAttachment(a *models.Attachment) {
	if a == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.files.Delete(ctx, a.Key); err != nil {
		s.logger.Warn("failed to remove orphaned attachment", "key", a.Key, "error", err)
	}
}

func (s *chatService) attachmentURL(ctx context.Context, key string) string {
	url, err := s.files.GetURL(ctx, key, storage.DefaultURLExpiry)
	if err != nil {
		s.logger.Warn("failed to resolve attachment url", "key", key, "error", err)
		return ""
	}
	return url
}

// resolveAttachmentURLs refreshes links, which may be short-lived presigned URLs.
func (s *chatService) resolveAttachmentURLs(ctx context.Context, messages []models.ChatMessage) {
	for i := range messages {
		if a := messages[i].Attachment; a != nil && a.Key != "" {
			a.URL = s.attachmentURL(ctx, a.Key)
		}
	}
}

// guardKey scopes the in-flight claim to one session, or to the user's
// session creation when no session exists yet.
func guardKey(userID, sessionID string) string {
	if sessionID == "" {
		return userID + ":new"
	}
	return userID + ":" + sessionID
}

// deriveTitle uses the first line of the message, then the file name.
func deriveTitle(message string, f *services.UploadedFile) string {
	line, _, _ := strings.Cut(message, "\n")
	line = strings.TrimSpace(line)
	if line == "" && f != nil {
		line = strings.TrimSpace(f.Name)
	}
	if line == "" {
		return DefaultSessionTitle
	}
	if utf8.RuneCountInString(line) > config.MaxDerivedTitleRunes {
		runes := []rune(line)
		line = strings.TrimSpace(string(runes[:config.MaxDerivedTitleRunes])) + "…"
	}
	return line
}

func validateCreateSession(req *services.CreateSessionRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.Title, validation.Length(0, config.MaxSessionTitleLength)),
		validation.Field(&req.ChatMode, validation.By(validChatMode)),
	)
}

func validateSendMessage(req *services.SendMessageRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.Message,
			validation.When(req.File == nil, validation.Required.Error("message cannot be empty")),
			validation.Length(0, config.MaxMessageLength),
		),
		validation.Field(&req.ChatMode, validation.When(req.ChatMode != "", validation.By(validChatMode))),
		validation.Field(&req.File, validation.By(validUpload)),
	)
}

func validChatMode(value interface{}) error {
	mode, _ := value.(models.ChatMode)
	if !mode.Valid() {
		return fmt.Errorf("must be one of %v", models.ChatModes)
	}
	return nil
}

func validUpload(value interface{}) error {
	f, _ := value.(*services.UploadedFile)
	if f == nil {
		return nil
	}
	if strings.TrimSpace(f.Name) == "" {
		return errors.New("file name is required")
	}
	if len(f.Data) == 0 {
		return errors.New("file is empty")
	}
	if len(f.Data) > config.MaxAttachmentBytes {
		return fmt.Errorf("file exceeds %d bytes", config.MaxAttachmentBytes)
	}
	return nil
}
