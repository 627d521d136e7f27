package server

import (
	"log/slog"
	"net/http"

	"github.com/claude/liftlog/internal/tracker"
	"github.com/go-chi/chi/v5"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	svc    *tracker.Service
	log    *slog.Logger
	router chi.Router
	whois  WhoIser
}

// New creates a new Server with all routes configured.
func New(svc *tracker.Service, log *slog.Logger) *Server {
	s := &Server{
		svc:    svc,
		log:    log,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)
	s.router.Use(s.identity)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/me", s.handleMe)

		r.Get("/templates", s.handleTemplates)

		r.Get("/workouts", s.handleListWorkouts)
		r.Post("/workouts", s.handleCreateWorkout)
		r.Get("/workouts/previous", s.handlePreviousWorkout)
		r.Get("/workouts/{date}", s.handleGetWorkout)

		r.Post("/sessions", s.handleStartSession)
		r.Get("/sessions/{date}", s.handleGetSession)
		r.Put("/sessions/{date}/reps", s.handleSetReps)
		r.Put("/sessions/{date}/exercises/{index}", s.handleReshapeExercise)
		r.Post("/sessions/{date}/save", s.handleSaveSession)

		r.Get("/calendar", s.handleCalendar)
		r.Get("/calendar/today", s.handleQuickAdd)
	})
}

// SetTailscale enables tailnet identity lookup for incoming requests.
func (s *Server) SetTailscale(w WhoIser) {
	s.whois = w
}

// SetMCP mounts an MCP transport handler at /mcp.
func (s *Server) SetMCP(h http.Handler) {
	s.router.Handle("/mcp", h)
}
