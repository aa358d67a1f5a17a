package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/p-lizarazo/coursechat/internal/log"
	"github.com/p-lizarazo/coursechat/internal/rag"
	"github.com/p-lizarazo/coursechat/internal/tools"
)

// maxQueryBytes caps the request body for /api/query (64KB).
const maxQueryBytes = 64 * 1024

// Orchestrator is the pipeline surface the handlers depend on.
// *rag.System satisfies it.
type Orchestrator interface {
	Query(ctx context.Context, query, sessionID string) (*rag.Answer, error)
	Analytics(ctx context.Context) (*rag.Analytics, error)
	ClearSession(id string) error
}

// queryHandler serves POST /api/query.
type queryHandler struct {
	rag    Orchestrator
	logger log.Logger
}

type queryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

type queryResponse struct {
	Answer    string         `json:"answer"`
	Sources   []tools.Source `json:"sources"`
	SessionID string         `json:"session_id"`
}

func (h *queryHandler) query(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxQueryBytes)

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body", h.logger)
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "query must not be empty", h.logger)
		return
	}

	answer, err := h.rag.Query(r.Context(), req.Query, req.SessionID)
	if err != nil {
		h.logger.Error("query failed", "error", err, "session_id", req.SessionID)
		writeError(w, http.StatusInternalServerError, "query_failed", "failed to process query", h.logger)
		return
	}

	sources := answer.Sources
	if sources == nil {
		sources = []tools.Source{}
	}

	writeJSON(w, http.StatusOK, queryResponse{
		Answer:    answer.Text,
		Sources:   sources,
		SessionID: answer.SessionID,
	}, h.logger)
}
