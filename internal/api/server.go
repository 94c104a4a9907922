// Package api exposes the pipeline over HTTP: submit a run, check its
// status, fetch the latest analytics report.
package api

import (
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/dgallion1/finfacts/internal/config"
	"github.com/dgallion1/finfacts/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for finfacts.
type Server struct {
	router chi.Router
	runner *pipeline.Runner
	runs   *pipeline.RunStore
	log    *slog.Logger
	cfg    config.Config

	// The pipeline is strictly sequential; only one run may be in
	// flight at a time.
	busy atomic.Bool
}

// NewServer creates and configures the HTTP server.
func NewServer(runner *pipeline.Runner, runs *pipeline.RunStore, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		runner: runner,
		runs:   runs,
		log:    log,
		cfg:    cfg,
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
		r.Use(AuthMiddleware(s.cfg.FinfactsAPIKey, s.log))

		r.Post("/api/runs", s.handleCreateRun)
		r.Get("/api/runs/{runID}", s.handleRunStatus)
		r.Get("/api/report", s.handleReport)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
