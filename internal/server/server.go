package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nobuki/engram/internal/engine"
	"github.com/nobuki/engram/internal/store"
)

// Server is the engram HTTP API server.
type Server struct {
	db      *store.DB
	engine  *engine.Engine
	router  chi.Router
	version string
	started time.Time
}

// New creates a new Server with the given database, engine and version string.
func New(db *store.DB, eng *engine.Engine, version string) *Server {
	s := &Server{
		db:      db,
		engine:  eng,
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Memory write + recall
		r.Post("/memories", s.handleSaveMemory)
		r.Get("/memories/{memoryID}", s.handleGetMemory)
		r.Get("/recall", s.handleRecall)

		// Inspection: action audit trail
		r.Get("/actions", s.handleActions)

		// Agent loop: event inbox
		r.Post("/events", s.handleAddEvent)
		r.Get("/events/next", s.handleNextEvent)
		r.Post("/events/{eventID}/processed", s.handleEventProcessed)

		// Owners
		r.Post("/users", s.handleAddUser)
		r.Get("/users/{username}", s.handleGetUser)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.Ping(); err != nil {
		dbOK = false
	}
	memories, _ := s.db.CountMemories()
	pending, _ := s.db.PendingEventCount()

	embedder := "none"
	if s.engine != nil && s.engine.Embedder != nil {
		embedder = s.engine.Embedder.Model()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":         "ok",
		"version":        s.version,
		"uptime":         time.Since(s.started).Seconds(),
		"db":             dbOK,
		"db_path":        s.db.Path,
		"memories":       memories,
		"pending_events": pending,
		"embedder":       embedder,
	})
}
