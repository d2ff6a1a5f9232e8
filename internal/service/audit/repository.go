package audit

import (
	"context"

	"github.com/ignite/messaging-engine/internal/domain"
)

// DecisionLog reads the decision audit trail, newest first.
type DecisionLog interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Decision, error)
}

// EventLog reads stored events, newest first by event_timestamp.
type EventLog interface {
	// GetByID returns ErrEventNotFound for unknown ids.
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Event, error)
}

// SendRequestLog reads recorded send intents, newest first by decided_at.
type SendRequestLog interface {
	ListByUser(ctx context.Context, userID string) ([]domain.SendRequest, error)
}

// SuppressionLog reads withheld sends, newest first by decided_at.
type SuppressionLog interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Suppression, error)
}
