package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mechat/internal/config"
	"mechat/internal/domain"
	"mechat/internal/domain/models"
	"mechat/internal/domain/services"
	"mechat/internal/httputil"
)

// withUser plays the part of the auth middleware.
func withUser(userID string, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h(w, httputil.WithUserID(r, userID))
	})
}

func chatMux(h *ChatHandler, userID string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /api/sessions", withUser(userID, h.ListSessions))
	mux.Handle("POST /api/sessions", withUser(userID, h.CreateSession))
	mux.Handle("GET /api/sessions/{id}", withUser(userID, h.GetSession))
	mux.Handle("POST /api/sessions/{id}/messages", withUser(userID, h.SendToSession))
	mux.Handle("POST /api/messages", withUser(userID, h.SendMessage))
	mux.Handle("GET /api/sessions/{id}/export", withUser(userID, h.ExportSession))
	return mux
}

func TestSendMessage_JSON(t *testing.T) {
	svc := newFakeChatService()
	svc.sendResult = &services.SendMessageResult{
		Session:          &models.ChatSession{ID: "s1"},
		UserMessage:      &models.ChatMessage{Role: models.RoleUser, Content: "Summarize this"},
		AssistantMessage: &models.ChatMessage{Role: models.RoleAssistant, Content: "Here is a summary"},
		Shape:            models.ShapeArray,
	}
	mux := chatMux(NewChatHandler(svc, testLogger()), "user-1")

	body := `{"message":"Summarize this","chat_mode":"Summarizer"}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sessions/s1/messages", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if svc.lastSend.SessionID != "s1" || svc.lastSend.UserID != "user-1" {
		t.Errorf("request ids = %q/%q", svc.lastSend.SessionID, svc.lastSend.UserID)
	}
	if svc.lastSend.ChatMode != models.ChatModeSummarizer || svc.lastSend.File != nil {
		t.Errorf("request = %+v", svc.lastSend)
	}

	var got struct {
		AssistantMessage models.ChatMessage `json:"assistant_message"`
		Shape            string             `json:"shape"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.AssistantMessage.Content != "Here is a summary" || got.Shape != string(models.ShapeArray) {
		t.Errorf("reply = %+v", got)
	}
}

func TestSendMessage_NewSessionHasNoID(t *testing.T) {
	svc := newFakeChatService()
	svc.sendResult = &services.SendMessageResult{Session: &models.ChatSession{ID: "fresh"}}
	mux := chatMux(NewChatHandler(svc, testLogger()), "user-1")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader(`{"message":"hi"}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if svc.lastSend.SessionID != "" {
		t.Errorf("session id = %q, want empty", svc.lastSend.SessionID)
	}
}

func TestSendMessage_Multipart(t *testing.T) {
	svc := newFakeChatService()
	svc.sendResult = &services.SendMessageResult{Session: &models.ChatSession{ID: "s1"}}
	mux := chatMux(NewChatHandler(svc, testLogger()), "user-1")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("message", "What is in this file?")
	_ = mw.WriteField("chat_mode", "Global")
	part, _ := mw.CreateFormFile("file", "notes.txt")
	_, _ = part.Write([]byte("quarterly numbers"))
	_ = mw.Close()

	r := httptest.NewRequest(http.MethodPost, "/api/messages", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	req := svc.lastSend
	if req.Message != "What is in this file?" || req.ChatMode != models.ChatModeGlobal {
		t.Errorf("fields = %q/%q", req.Message, req.ChatMode)
	}
	if req.File == nil || req.File.Name != "notes.txt" || string(req.File.Data) != "quarterly numbers" {
		t.Fatalf("file = %+v", req.File)
	}
	if !strings.HasPrefix(req.File.ContentType, "text/plain") {
		t.Errorf("content type = %q, want sniffed text/plain", req.File.ContentType)
	}
}

func TestSendMessage_MultipartTooLarge(t *testing.T) {
	svc := newFakeChatService()
	mux := chatMux(NewChatHandler(svc, testLogger()), "user-1")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("file", "big.bin")
	_, _ = part.Write(bytes.Repeat([]byte{1}, config.MaxAttachmentBytes+multipartOverhead+1))
	_ = mw.Close()

	r := httptest.NewRequest(http.MethodPost, "/api/messages", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, r)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
	if svc.lastSend != nil {
		t.Error("service should not be called")
	}
}

func TestSendMessage_BackendFailure(t *testing.T) {
	svc := newFakeChatService()
	svc.sendResult = &services.SendMessageResult{
		Session:          &models.ChatSession{ID: "s1"},
		UserMessage:      &models.ChatMessage{Content: "hello"},
		AssistantMessage: &models.ChatMessage{Content: "Sorry", Error: true},
	}
	svc.sendErr = fmt.Errorf("%w: status 500", domain.ErrBackend)
	mux := chatMux(NewChatHandler(svc, testLogger()), "user-1")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sessions/s1/messages", strings.NewReader(`{"message":"hello"}`)))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	var body struct {
		Session          models.ChatSession `json:"session"`
		AssistantMessage models.ChatMessage `json:"assistant_message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Session.ID != "s1" || !body.AssistantMessage.Error {
		t.Errorf("extras = %+v", body)
	}
}

func TestSendMessage_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", fmt.Errorf("%w: message required", domain.ErrValidation), http.StatusBadRequest},
		{"in flight", domain.ErrRequestInFlight, http.StatusConflict},
		{"not found", fmt.Errorf("session x: %w", domain.ErrNotFound), http.StatusNotFound},
		{"backend without result", domain.ErrBackend, http.StatusBadGateway},
		{"unknown", fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newFakeChatService()
			svc.sendErr = tt.err
			mux := chatMux(NewChatHandler(svc, testLogger()), "user-1")

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader(`{"message":"x"}`)))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestSendMessage_InvalidJSON(t *testing.T) {
	svc := newFakeChatService()
	mux := chatMux(NewChatHandler(svc, testLogger()), "user-1")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader(`{"message":`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSessionsCRUD(t *testing.T) {
	svc := newFakeChatService()
	mux := chatMux(NewChatHandler(svc, testLogger()), "user-1")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader(`{"title":"Planning","chat_mode":"Global"}`)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	if svc.lastCreate.UserID != "user-1" || svc.lastCreate.Title != "Planning" {
		t.Errorf("create request = %+v", svc.lastCreate)
	}

	// Empty body is allowed
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sessions", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("empty create status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))
	var list []models.ChatSession
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil || len(list) != 2 {
		t.Fatalf("list = %s (%v)", rec.Body, err)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/s1", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("get status = %d", rec.Code)
	}

	// Another user's session is invisible
	other := chatMux(NewChatHandler(svc, testLogger()), "user-2")
	rec = httptest.NewRecorder()
	other.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/s1", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("foreign get status = %d, want 404", rec.Code)
	}
}

func TestExportSession(t *testing.T) {
	svc := newFakeChatService()
	svc.sessions["s1"] = &models.ChatSession{ID: "s1", UserID: "user-1"}
	svc.export = &services.ExportResult{
		Filename:    "MEChat-Company-2026-10-16.docx",
		ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		Data:        []byte("PK\x03\x04"),
	}
	mux := chatMux(NewChatHandler(svc, testLogger()), "user-1")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/s1/export", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename=MEChat-Company-2026-10-16.docx` {
		t.Errorf("disposition = %q", got)
	}
	if rec.Header().Get("Content-Type") != svc.export.ContentType {
		t.Errorf("content type = %q", rec.Header().Get("Content-Type"))
	}
	if rec.Body.String() != "PK\x03\x04" {
		t.Errorf("body = %q", rec.Body.String())
	}
}
