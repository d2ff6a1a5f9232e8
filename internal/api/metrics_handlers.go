package api

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/ignite/messaging-engine/internal/domain"
	"github.com/ignite/messaging-engine/internal/metrics"
)

const defaultFeedLimit = 50

// DecisionFeed reads back the Redis decision feed and outcome counters.
type DecisionFeed interface {
	Recent(ctx context.Context, limit int) ([]metrics.DecisionRecord, error)
	OutcomeCounts(ctx context.Context, t time.Time) (map[domain.Outcome]int64, error)
}

// DecisionMetrics is the response body for GET /metrics/decisions.
type DecisionMetrics struct {
	Date     string                   `json:"date"`
	Outcomes map[domain.Outcome]int64 `json:"outcomes"`
	Recent   []metrics.DecisionRecord `json:"recent"`
}

// GetDecisionMetrics returns today's outcome counters plus the recent
// decision feed. Responds 503 when the metrics publisher is not configured.
//
//	GET /metrics/decisions?limit=N
func (h *Handlers) GetDecisionMetrics(w http.ResponseWriter, r *http.Request) {
	if h.feed == nil {
		respondError(w, http.StatusServiceUnavailable, "metrics not enabled")
		return
	}

	limit := defaultFeedLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	now := time.Now().UTC()

	recent, err := h.feed.Recent(r.Context(), limit)
	if err != nil {
		log.Printf("[API] Decision feed read failed: %v", err)
		respondError(w, http.StatusInternalServerError, "metrics read failed")
		return
	}

	counts, err := h.feed.OutcomeCounts(r.Context(), now)
	if err != nil {
		log.Printf("[API] Outcome counter read failed: %v", err)
		respondError(w, http.StatusInternalServerError, "metrics read failed")
		return
	}

	respondJSON(w, http.StatusOK, DecisionMetrics{
		Date:     now.Format("2006-01-02"),
		Outcomes: counts,
		Recent:   recent,
	})
}
