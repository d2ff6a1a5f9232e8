package api

import (
	"context"
	"log"
	"net/http"
	"time"
)

// Pinger is the one method of *sql.DB the readiness probe needs.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Health is a simple liveness check: 200 whenever the process is up.
//
//	GET /health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready pings the database with a short timeout and reports whether the
// service can take traffic. Suitable for ECS/Kubernetes readiness probes.
//
//	GET /health/ready
func (h *Handlers) Ready(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		log.Printf("[API] Readiness check failed: %v", err)
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
