package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/ignite/messaging-engine/internal/domain"
)

// AuditLogItem is one decision projected into the audit feed.
type AuditLogItem struct {
	Timestamp    time.Time         `json:"timestamp"`
	Kind         string            `json:"kind"`
	EventID      string            `json:"event_id"`
	UserID       string            `json:"user_id"`
	EventType    string            `json:"event_type"`
	MatchedRule  *string           `json:"matched_rule,omitempty"`
	ActionType   domain.ActionType `json:"action_type"`
	Outcome      domain.Outcome    `json:"outcome"`
	Reason       string            `json:"reason"`
	TemplateName *string           `json:"template_name,omitempty"`
	Channel      *domain.Channel   `json:"channel,omitempty"`
}

// AuditLog is the per-user decision feed, newest first.
type AuditLog struct {
	UserID string         `json:"user_id"`
	Items  []AuditLogItem `json:"items"`
}

// Activity is the raw per-user trail behind the decision feed.
type Activity struct {
	UserID       string               `json:"user_id"`
	Events       []domain.Event       `json:"events"`
	SendRequests []domain.SendRequest `json:"send_requests"`
	Suppressions []domain.Suppression `json:"suppressions"`
}

// Service assembles audit read models. It is safe for concurrent use.
type Service struct {
	decisions    DecisionLog
	events       EventLog
	sendRequests SendRequestLog
	suppressions SuppressionLog
}

// NewService creates an audit service over the given read repositories.
func NewService(decisions DecisionLog, events EventLog, sendRequests SendRequestLog, suppressions SuppressionLog) *Service {
	return &Service{
		decisions:    decisions,
		events:       events,
		sendRequests: sendRequests,
		suppressions: suppressions,
	}
}

// GetAuditLog returns the user's decision feed. Unknown users yield an
// empty items list, not an error.
func (s *Service) GetAuditLog(ctx context.Context, userID string) (*AuditLog, error) {
	decisions, err := s.decisions.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}

	items := make([]AuditLogItem, 0, len(decisions))
	for _, d := range decisions {
		items = append(items, AuditLogItem{
			Timestamp:    d.CreatedAt,
			Kind:         "decision",
			EventID:      d.EventID,
			UserID:       d.UserID,
			EventType:    d.EventType,
			MatchedRule:  d.MatchedRule,
			ActionType:   d.ActionType,
			Outcome:      d.Outcome,
			Reason:       d.Reason,
			TemplateName: d.TemplateName,
			Channel:      d.Channel,
		})
	}
	return &AuditLog{UserID: userID, Items: items}, nil
}

// GetActivity returns the user's raw event, send, and suppression trail.
func (s *Service) GetActivity(ctx context.Context, userID string) (*Activity, error) {
	events, err := s.events.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	sends, err := s.sendRequests.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list send requests: %w", err)
	}
	suppressions, err := s.suppressions.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list suppressions: %w", err)
	}

	a := &Activity{
		UserID:       userID,
		Events:       events,
		SendRequests: sends,
		Suppressions: suppressions,
	}
	// Empty trails serialize as [] rather than null.
	if a.Events == nil {
		a.Events = []domain.Event{}
	}
	if a.SendRequests == nil {
		a.SendRequests = []domain.SendRequest{}
	}
	if a.Suppressions == nil {
		a.Suppressions = []domain.Suppression{}
	}
	return a, nil
}

// GetEvent resolves a single stored event with its traits.
func (s *Service) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	return s.events.GetByID(ctx, id)
}
