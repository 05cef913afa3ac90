package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"mechat/internal/config"
	"mechat/internal/domain"
	"mechat/internal/domain/models"
	"mechat/internal/domain/services"
	"mechat/internal/httputil"
)

// multipartOverhead leaves room for the form fields around the file part.
const multipartOverhead = 1 << 20

// ChatHandler handles chat session HTTP requests
type ChatHandler struct {
	chatService services.ChatService
	logger      *slog.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService services.ChatService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      logger,
	}
}

// ListSessions returns the caller's sessions, newest first
// GET /api/sessions
func (h *ChatHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.chatService.ListSessions(r.Context(), httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, sessions)
}

// CreateSession starts an empty session
// POST /api/sessions
func (h *ChatHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req services.CreateSessionRequest
	if r.ContentLength != 0 {
		if err := httputil.ParseJSON(w, r, &req); err != nil {
			httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}
	req.UserID = httputil.GetUserID(r)

	session, err := h.chatService.CreateSession(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, session)
}

// GetSession returns a session with its messages
// GET /api/sessions/{id}
func (h *ChatHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := PathParam(w, r, "id", "Session ID")
	if !ok {
		return
	}

	session, err := h.chatService.GetSession(r.Context(), sessionID, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, session)
}

// SendToSession sends a message into an existing session
// POST /api/sessions/{id}/messages
func (h *ChatHandler) SendToSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := PathParam(w, r, "id", "Session ID")
	if !ok {
		return
	}
	h.send(w, r, sessionID)
}

// SendMessage sends a message and creates a session for it
// POST /api/messages
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, "")
}

func (h *ChatHandler) send(w http.ResponseWriter, r *http.Request, sessionID string) {
	req, err := h.parseSendRequest(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.RespondError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("attachment exceeds %d bytes", config.MaxAttachmentBytes))
			return
		}
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.UserID = httputil.GetUserID(r)
	req.SessionID = sessionID

	result, err := h.chatService.SendMessage(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrBackend) && result != nil {
			httputil.RespondErrorWithExtras(w, http.StatusBadGateway, "the assistant could not be reached", map[string]any{
				"session":           result.Session,
				"user_message":      result.UserMessage,
				"assistant_message": result.AssistantMessage,
			})
			return
		}
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// parseSendRequest accepts either a JSON body or a multipart form with an
// optional "file" part.
func (h *ChatHandler) parseSendRequest(w http.ResponseWriter, r *http.Request) (*services.SendMessageRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var req services.SendMessageRequest
		if err := httputil.ParseJSON(w, r, &req); err != nil {
			return nil, err
		}
		return &req, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, config.MaxAttachmentBytes+multipartOverhead)
	if err := r.ParseMultipartForm(config.MaxAttachmentBytes); err != nil {
		return nil, fmt.Errorf("invalid multipart form: %w", err)
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	req := &services.SendMessageRequest{
		Message:  r.FormValue("message"),
		ChatMode: models.ChatMode(r.FormValue("chat_mode")),
	}

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return req, nil
	}
	if err != nil {
		return nil, fmt.Errorf("invalid file part: %w", err)
	}
	defer func() { _ = file.Close() }()

	// One byte past the cap so the service can reject oversize files
	data, err := io.ReadAll(io.LimitReader(file, config.MaxAttachmentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read file part: %w", err)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	req.File = &services.UploadedFile{
		Name:        header.Filename,
		ContentType: contentType,
		Data:        data,
	}

	h.logger.Debug("multipart message parsed",
		"file_name", header.Filename,
		"content_type", contentType,
		"size", len(data),
	)
	return req, nil
}

// ExportSession downloads a session as a Word document
// GET /api/sessions/{id}/export
func (h *ChatHandler) ExportSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := PathParam(w, r, "id", "Session ID")
	if !ok {
		return
	}

	export, err := h.chatService.ExportSession(r.Context(), sessionID, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": export.Filename,
	}))
	w.Header().Set("Content-Length", strconv.Itoa(len(export.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(export.Data); err != nil {
		h.logger.Warn("export write failed", "session_id", sessionID, "error", err)
	}
}

