package api

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/messaging-engine/internal/domain"
	"github.com/ignite/messaging-engine/internal/service/audit"
)

// AuditReader serves the audit read surface: decision history, raw activity,
// and single-event lookup.
type AuditReader interface {
	GetAuditLog(ctx context.Context, userID string) (*audit.AuditLog, error)
	GetActivity(ctx context.Context, userID string) (*audit.Activity, error)
	GetEvent(ctx context.Context, eventID string) (*domain.Event, error)
}

// GetAuditLog returns the decision history for a user, newest first. Unknown
// users get an empty log, not an error.
//
//	GET /audit/{userID}
func (h *Handlers) GetAuditLog(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	auditLog, err := h.auditor.GetAuditLog(r.Context(), userID)
	if err != nil {
		log.Printf("[API] Audit lookup failed for user %s: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "audit lookup failed")
		return
	}

	respondJSON(w, http.StatusOK, auditLog)
}

// GetActivity returns the raw per-user rows behind the decisions: events,
// send requests, and suppressions.
//
//	GET /audit/{userID}/activity
func (h *Handlers) GetActivity(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	activity, err := h.auditor.GetActivity(r.Context(), userID)
	if err != nil {
		log.Printf("[API] Activity lookup failed for user %s: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "activity lookup failed")
		return
	}

	respondJSON(w, http.StatusOK, activity)
}
