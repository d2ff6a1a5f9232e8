package processing

import (
	"context"
	"time"

	"github.com/ignite/messaging-engine/internal/domain"
)

// Store opens the transaction that scopes one event decision.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
}

// Tx is a single decision transaction. Every row written while deciding
// an event goes through one Tx so the decision commits or rolls back as
// a unit.
type Tx interface {
	Events() EventStore
	SendRequests() SendRequestStore
	Suppressions() SuppressionStore
	Decisions() DecisionStore
	Commit() error
	Rollback() error
}

// EventStore persists events and answers prior-event lookups. Lookups run
// inside the same transaction as the insert, so the event being decided is
// visible to rule conditions.
type EventStore interface {
	Add(ctx context.Context, ev *domain.Event) error
	GetLatestByUserAndType(ctx context.Context, userID, eventType string) (*domain.Event, error)
}

// SendRequestStore records send intents and answers the suppression gate's
// history probes.
type SendRequestStore interface {
	Add(ctx context.Context, sr *domain.SendRequest) error
	ExistsForUserAndTemplate(ctx context.Context, userID, templateName string) (bool, error)
	ExistsInDaySoFar(ctx context.Context, userID, templateName string, at time.Time) (bool, error)
}

// SuppressionStore records sends withheld by the suppression gate.
type SuppressionStore interface {
	Add(ctx context.Context, s *domain.Suppression) error
}

// DecisionStore records the audit row written for every ingested event.
type DecisionStore interface {
	Add(ctx context.Context, d *domain.Decision) error
}
