package handler

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"mechat/internal/domain/models"
	"mechat/internal/domain/services"
	"mechat/internal/httputil"
)

// UserPreferencesHandler handles user preferences HTTP requests
type UserPreferencesHandler struct {
	service services.UserPreferencesService
	logger  *slog.Logger
}

// NewUserPreferencesHandler creates a new user preferences handler
func NewUserPreferencesHandler(service services.UserPreferencesService, logger *slog.Logger) *UserPreferencesHandler {
	return &UserPreferencesHandler{
		service: service,
		logger:  logger,
	}
}

// GetPreferences returns the caller's preferences, or defaults
// GET /api/users/me/preferences
func (h *UserPreferencesHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerUUID(w, r)
	if !ok {
		return
	}

	prefs, err := h.service.GetPreferences(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, prefs)
}

// UpdatePreferences replaces the namespaces present in the body
// PATCH /api/users/me/preferences
func (h *UserPreferencesHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerUUID(w, r)
	if !ok {
		return
	}

	var req models.UpdatePreferencesRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	prefs, err := h.service.UpdatePreferences(r.Context(), userID, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, prefs)
}

// callerUUID parses the authenticated subject; preferences are keyed by UUID
func (h *UserPreferencesHandler) callerUUID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := parseUUID(httputil.GetUserID(r))
	if err != nil {
		h.logger.Debug("non-uuid subject on preferences route", "user_id", httputil.GetUserID(r))
		httputil.RespondError(w, http.StatusBadRequest, "Invalid user ID format")
		return uuid.Nil, false
	}
	return id, true
}
