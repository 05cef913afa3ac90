package chat

import (
	"context"
	"fmt"
	"time"

	"mechat/internal/domain/services"
	"mechat/internal/export/docx"
)

// DocxContentType is the media type of exported documents.
const DocxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// ExportSession renders the session transcript as .docx
func (s *chatService) ExportSession(ctx context.Context, sessionID, userID string) (*services.ExportResult, error) {
	session, err := s.sessionRepo.GetSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().In(s.location)
	data, err := docx.ExportChat(session.Title, session.Messages, docx.Options{
		Location: s.location,
		Created:  now,
	})
	if err != nil {
		return nil, fmt.Errorf("export session %s: %w", sessionID, err)
	}

	s.logger.Info("chat session exported",
		"session_id", session.ID,
		"user_id", userID,
		"messages", len(session.Messages),
		"bytes", len(data),
	)

	return &services.ExportResult{
		Filename:    docx.Filename(session.ChatMode, now),
		ContentType: DocxContentType,
		Data:        data,
	}, nil
}
