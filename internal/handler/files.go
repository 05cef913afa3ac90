package handler

import (
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strings"

	"mechat/internal/domain/services"
	"mechat/internal/httputil"
	"mechat/internal/storage"
)

// FileHandler serves stored attachments back to their owner
type FileHandler struct {
	files      storage.Storage
	authorizer services.ResourceAuthorizer
	logger     *slog.Logger
}

// NewFileHandler creates a new file handler
func NewFileHandler(files storage.Storage, authorizer services.ResourceAuthorizer, logger *slog.Logger) *FileHandler {
	return &FileHandler{
		files:      files,
		authorizer: authorizer,
		logger:     logger,
	}
}

// GetFile streams an attachment
// GET /files/{key...}
func (h *FileHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	key, ok := PathParam(w, r, "key", "File key")
	if !ok {
		return
	}
	key = path.Clean(key)

	if err := h.authorizer.CanAccessAttachment(r.Context(), httputil.GetUserID(r), key); err != nil {
		handleError(w, err)
		return
	}

	body, err := h.files.Read(r.Context(), key)
	if err != nil {
		handleError(w, err)
		return
	}
	defer func() { _ = body.Close() }()

	name := path.Base(key)
	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType(dispositionFor(contentType), map[string]string{"filename": name}))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "private, max-age=3600")

	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("attachment stream interrupted", "key", key, "error", err)
	}
}

// dispositionFor renders raster images inline and downloads everything else,
// so stored HTML or SVG never runs on the API origin.
func dispositionFor(contentType string) string {
	if strings.HasPrefix(contentType, "image/") && !strings.HasPrefix(contentType, "image/svg") {
		return "inline"
	}
	return "attachment"
}
