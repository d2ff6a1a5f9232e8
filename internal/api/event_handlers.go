package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/messaging-engine/internal/service/audit"
	"github.com/ignite/messaging-engine/internal/service/processing"
)

// EventProcessor runs the decision pipeline for one incoming event.
type EventProcessor interface {
	ProcessEvent(ctx context.Context, in processing.EventIn) (*processing.Result, error)
}

// ProcessEvent ingests one lifecycle event and returns the decision result.
//
//	POST /events/
func (h *Handlers) ProcessEvent(w http.ResponseWriter, r *http.Request) {
	var in processing.EventIn
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusUnprocessableEntity, fmt.Sprintf("malformed event payload: %v", err))
		return
	}

	result, err := h.processor.ProcessEvent(r.Context(), in)
	if err != nil {
		if errors.Is(err, processing.ErrInvalidEvent) {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		log.Printf("[API] Event processing failed: %v", err)
		respondError(w, http.StatusInternalServerError, "event processing failed")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetEvent returns a stored event with its traits row.
//
//	GET /events/{eventID}
func (h *Handlers) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	ev, err := h.auditor.GetEvent(r.Context(), eventID)
	if err != nil {
		if errors.Is(err, audit.ErrEventNotFound) {
			respondError(w, http.StatusNotFound, "event not found")
			return
		}
		log.Printf("[API] Event lookup failed: %v", err)
		respondError(w, http.StatusInternalServerError, "event lookup failed")
		return
	}

	respondJSON(w, http.StatusOK, ev)
}
