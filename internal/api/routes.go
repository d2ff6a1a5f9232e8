package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Handlers bundles the HTTP handlers with their service dependencies. The
// decision feed and the DB pinger may be nil; the affected endpoints then
// report unavailable instead.
type Handlers struct {
	processor EventProcessor
	auditor   AuditReader
	feed      DecisionFeed
	db        Pinger
}

// NewHandlers creates the handler set for the API server.
func NewHandlers(processor EventProcessor, auditor AuditReader, feed DecisionFeed, db Pinger) *Handlers {
	return &Handlers{
		processor: processor,
		auditor:   auditor,
		feed:      feed,
		db:        db,
	}
}

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers, corsOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// Health checks (no dependencies beyond the DB ping for readiness)
	r.Get("/health", h.Health)
	r.Get("/health/ready", h.Ready)

	// Event ingestion and lookup
	r.Route("/events", func(r chi.Router) {
		r.Post("/", h.ProcessEvent)
		r.Get("/{eventID}", h.GetEvent)
	})

	// Audit read surface
	r.Route("/audit", func(r chi.Router) {
		r.Get("/{userID}", h.GetAuditLog)
		r.Get("/{userID}/activity", h.GetActivity)
	})

	// Decision metrics feed
	r.Get("/metrics/decisions", h.GetDecisionMetrics)

	return r
}
