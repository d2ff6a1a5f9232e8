package gatekeeper

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ignite/messaging-engine/internal/domain"
	"github.com/ignite/messaging-engine/internal/engine"
)

// Service applies send-frequency policy to an evaluated rule decision.
// It is safe for concurrent use.
type Service struct {
	history SendHistory
}

// NewService creates a gate backed by the given send history.
func NewService(history SendHistory) *Service {
	return &Service{history: history}
}

// Evaluate maps a rule decision to its final outcome. eventTS is the
// triggering event's timestamp and anchors the calendar-day window; the
// suppression reason is the mode that withheld the send, empty otherwise.
func (s *Service) Evaluate(ctx context.Context, userID string, eventTS time.Time, decision engine.RuleDecision) (domain.Outcome, string, error) {
	switch decision.ActionType {
	case domain.ActionNone:
		return domain.OutcomeNone, "", nil
	case domain.ActionAlert:
		return domain.OutcomeAlert, "", nil
	}

	switch decision.SuppressionMode {
	case domain.SuppressNone, "":
		return domain.OutcomeAllow, "", nil

	case domain.SuppressOnceEver:
		sent, err := s.history.ExistsForUserAndTemplate(ctx, userID, decision.TemplateName)
		if err != nil {
			return "", "", fmt.Errorf("send history lookup: %w", err)
		}
		if sent {
			return domain.OutcomeSuppress, string(domain.SuppressOnceEver), nil
		}
		return domain.OutcomeAllow, "", nil

	case domain.SuppressOncePerDay:
		sent, err := s.history.ExistsInDaySoFar(ctx, userID, decision.TemplateName, eventTS)
		if err != nil {
			return "", "", fmt.Errorf("send history lookup: %w", err)
		}
		if sent {
			return domain.OutcomeSuppress, string(domain.SuppressOncePerDay), nil
		}
		return domain.OutcomeAllow, "", nil

	default:
		// Fail open: an unrecognized mode must not silently swallow sends.
		log.Printf("[Gatekeeper] Unknown suppression mode %q for template %s, allowing send",
			decision.SuppressionMode, decision.TemplateName)
		return domain.OutcomeAllow, "", nil
	}
}
