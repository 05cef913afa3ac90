package handler

import (
	"log/slog"
	"net/http"

	"mechat/internal/domain/models"
	"mechat/internal/domain/services"
	"mechat/internal/httputil"
)

// PromptHandler handles prompt library HTTP requests
type PromptHandler struct {
	promptService services.PromptService
	logger        *slog.Logger
}

// NewPromptHandler creates a new prompt handler
func NewPromptHandler(promptService services.PromptService, logger *slog.Logger) *PromptHandler {
	return &PromptHandler{
		promptService: promptService,
		logger:        logger,
	}
}

// ListPrompts returns one tab of the prompt library
// GET /api/prompts?tab=recommended|favorites|mine|all
func (h *PromptHandler) ListPrompts(w http.ResponseWriter, r *http.Request) {
	tab := models.PromptTab(r.URL.Query().Get("tab"))

	prompts, err := h.promptService.ListPrompts(r.Context(), httputil.GetUserID(r), tab)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, prompts)
}

// CreatePrompt stores a prompt authored by the caller
// POST /api/prompts
func (h *PromptHandler) CreatePrompt(w http.ResponseWriter, r *http.Request) {
	var req services.PromptInput
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	prompt, err := h.promptService.CreatePrompt(r.Context(), authorFrom(r), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, prompt)
}

// UpdatePrompt replaces a prompt the caller authored
// PUT /api/prompts/{id}
func (h *PromptHandler) UpdatePrompt(w http.ResponseWriter, r *http.Request) {
	promptID, ok := PathParam(w, r, "id", "Prompt ID")
	if !ok {
		return
	}

	var req services.PromptInput
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	prompt, err := h.promptService.UpdatePrompt(r.Context(), authorFrom(r), promptID, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, prompt)
}

// ListFavorites returns the caller's favorite prompt ids
// GET /api/favorites
func (h *PromptHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	ids, err := h.promptService.ListFavorites(r.Context(), httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, ids)
}

// AddFavorite marks a prompt as a favorite
// PUT /api/favorites/{promptId}
func (h *PromptHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	promptID, ok := PathParam(w, r, "promptId", "Prompt ID")
	if !ok {
		return
	}

	if err := h.promptService.AddFavorite(r.Context(), httputil.GetUserID(r), promptID); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveFavorite clears a favorite
// DELETE /api/favorites/{promptId}
func (h *PromptHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	promptID, ok := PathParam(w, r, "promptId", "Prompt ID")
	if !ok {
		return
	}

	if err := h.promptService.RemoveFavorite(r.Context(), httputil.GetUserID(r), promptID); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// authorFrom names the caller using the token's profile claims
func authorFrom(r *http.Request) services.Author {
	if claims := httputil.GetClaims(r); claims != nil {
		return services.Author{ID: claims.GetUserID(), Name: claims.DisplayName()}
	}
	userID := httputil.GetUserID(r)
	return services.Author{ID: userID, Name: userID}
}
