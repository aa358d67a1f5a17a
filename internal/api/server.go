// Package api exposes the query pipeline over a JSON HTTP API.
package api

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/p-lizarazo/coursechat/internal/log"
)

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger      log.Logger
	RAG         Orchestrator  // Required
	Pool        *pgxpool.Pool // Optional: nil disables the database check in /ready
	CORSOrigins []string      // Allowed origins for CORS
	TrustProxy  bool          // Trust X-Real-IP/X-Forwarded-For (behind reverse proxy)
	RateLimit   float64       // Tokens/sec per IP; <= 0 disables rate limiting
	RateBurst   int           // Rate limiter burst size per IP (0 = default 20)
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates the API server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.RAG == nil {
		return nil, errors.New("rag system is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	qh := &queryHandler{rag: cfg.RAG, logger: logger}
	ch := &coursesHandler{rag: cfg.RAG, logger: logger}
	sh := &sessionHandler{rag: cfg.RAG, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/query", qh.query)
	mux.HandleFunc("GET /api/courses", ch.courses)
	mux.HandleFunc("DELETE /api/sessions/{id}", sh.deleteSession)

	// Middleware stack (outermost first):
	//   Recovery → Logging → CORS → RateLimit → Routes
	// CORS must wrap RateLimit so preflight OPTIONS carries CORS headers.
	var handler http.Handler = mux
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 20
		}
		handler = rateLimitMiddleware(newRateLimiter(cfg.RateLimit, burst), cfg.TrustProxy, logger)(handler)
	}
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Health probes bypass the middleware stack.
	hh := &healthHandler{pool: cfg.Pool, logger: logger}
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", hh.liveness)
	topMux.HandleFunc("GET /ready", hh.readiness)
	topMux.Handle("/", handler)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
