package api

import (
	"errors"
	"net/http"

	"github.com/p-lizarazo/coursechat/internal/log"
	"github.com/p-lizarazo/coursechat/internal/session"
)

// sessionHandler serves DELETE /api/sessions/{id}.
type sessionHandler struct {
	rag    Orchestrator
	logger log.Logger
}

func (h *sessionHandler) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "session id is required", h.logger)
		return
	}

	if err := h.rag.ClearSession(id); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session_not_found", "session not found", h.logger)
			return
		}
		h.logger.Error("clearing session failed", "error", err, "session_id", id)
		writeError(w, http.StatusInternalServerError, "session_clear_failed", "failed to clear session", h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
