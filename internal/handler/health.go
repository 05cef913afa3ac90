package handler

import (
	"net/http"

	"mechat/internal/httputil"
)

// Health answers liveness probes
// GET /health
func Health(w http.ResponseWriter, _ *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
