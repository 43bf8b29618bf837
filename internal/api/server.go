// Package api exposes the admin HTTP surface: health, ingest without the
// chat client, job polling, library listing, and model call statistics.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mkotula/retain/internal/config"
	"github.com/mkotula/retain/internal/llm"
	"github.com/mkotula/retain/internal/pipeline"
	"github.com/mkotula/retain/internal/store"
)

// Server is the admin HTTP API.
type Server struct {
	router chi.Router
	store  *store.Store
	orch   *pipeline.Orchestrator
	llm    *llm.Anthropic
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(st *store.Store, orch *pipeline.Orchestrator, client *llm.Anthropic, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		store: st,
		orch:  orch,
		llm:   client,
		log:   log,
		cfg:   cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.AdminAPIKey, s.log))

		r.Post("/api/ingest", s.handleIngest)
		r.Get("/api/ingest/{jobID}/status", s.handleIngestStatus)
		r.Get("/api/stats/llm", s.handleLLMStats)
		r.Get("/api/users/{telegramID}/books", s.handleUserBooks)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
