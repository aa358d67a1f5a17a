package api

import (
	"net/http"

	"github.com/p-lizarazo/coursechat/internal/log"
)

// coursesHandler serves GET /api/courses.
type coursesHandler struct {
	rag    Orchestrator
	logger log.Logger
}

func (h *coursesHandler) courses(w http.ResponseWriter, r *http.Request) {
	analytics, err := h.rag.Analytics(r.Context())
	if err != nil {
		h.logger.Error("course analytics failed", "error", err)
		writeError(w, http.StatusInternalServerError, "analytics_failed", "failed to load course statistics", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, analytics, h.logger)
}
