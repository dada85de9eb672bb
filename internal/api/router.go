package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/savegress/cliniredact/internal/audit"
	"github.com/savegress/cliniredact/internal/config"
	"github.com/savegress/cliniredact/internal/engine"
)

// Server represents the API server.
type Server struct {
	config   *config.Config
	router   chi.Router
	handlers *Handlers
	gatherer prometheus.Gatherer
}

// NewServer creates a new API server.
func NewServer(cfg *config.Config, eng *engine.Engine, auditLog *audit.Logger, gatherer prometheus.Gatherer) *Server {
	s := &Server{
		config:   cfg,
		router:   chi.NewRouter(),
		handlers: NewHandlers(eng, auditLog),
		gatherer: gatherer,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handlers.HealthCheck)
	if s.gatherer != nil {
		s.router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/redact", s.handlers.Redact)

		r.Route("/audit", func(r chi.Router) {
			r.Get("/events", s.handlers.ListAuditEvents)
			r.Get("/stats", s.handlers.GetAuditStats)
		})
	})
}

// Router returns the chi router.
func (s *Server) Router() http.Handler {
	return s.router
}
