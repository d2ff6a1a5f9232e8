package processing

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ignite/messaging-engine/internal/domain"
	"github.com/ignite/messaging-engine/internal/engine"
	"github.com/ignite/messaging-engine/internal/provider"
	"github.com/ignite/messaging-engine/internal/service/gatekeeper"
)

// EventIn is the ingest payload for one lifecycle event.
type EventIn struct {
	UserID         string         `json:"user_id"`
	EventType      string         `json:"event_type"`
	EventTimestamp time.Time      `json:"event_timestamp"`
	Properties     map[string]any `json:"properties,omitempty"`
	UserTraits     *TraitsIn      `json:"user_traits,omitempty"`
}

// TraitsIn is the point-in-time user snapshot attached to an event.
type TraitsIn struct {
	Email          *string `json:"email,omitempty"`
	Country        *string `json:"country,omitempty"`
	MarketingOptIn *bool   `json:"marketing_opt_in,omitempty"`
	RiskSegment    *string `json:"risk_segment,omitempty"`
}

// Validate reports ErrInvalidEvent when required fields are missing.
func (in EventIn) Validate() error {
	if strings.TrimSpace(in.UserID) == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidEvent)
	}
	if strings.TrimSpace(in.EventType) == "" {
		return fmt.Errorf("%w: event_type is required", ErrInvalidEvent)
	}
	if in.EventTimestamp.IsZero() {
		return fmt.Errorf("%w: event_timestamp is required", ErrInvalidEvent)
	}
	return nil
}

// Result summarizes one processed event.
type Result struct {
	EventID      string            `json:"event_id"`
	UserID       string            `json:"user_id"`
	EventType    string            `json:"event_type"`
	MatchedRule  *string           `json:"matched_rule,omitempty"`
	ActionType   domain.ActionType `json:"action_type,omitempty"`
	TemplateName string            `json:"template_name,omitempty"`
	Channel      domain.Channel    `json:"channel,omitempty"`
	Outcome      domain.Outcome    `json:"outcome"`
	Reason       string            `json:"reason,omitempty"`
}

// MetricsRecorder observes committed decisions. Implementations must not
// block the request path.
type MetricsRecorder interface {
	Record(d domain.Decision)
}

// Service runs the decision pipeline. It is safe for concurrent use; each
// call owns its transaction.
type Service struct {
	store     Store
	evaluator *engine.Evaluator
	provider  provider.Provider
	metrics   MetricsRecorder
}

// NewService creates the processor. metrics may be nil when the decision
// feed is disabled.
func NewService(store Store, evaluator *engine.Evaluator, p provider.Provider, metrics MetricsRecorder) *Service {
	return &Service{store: store, evaluator: evaluator, provider: p, metrics: metrics}
}

// ProcessEvent decides one event: persist, evaluate, gate, act, record.
func (s *Service) ProcessEvent(ctx context.Context, in EventIn) (*Result, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	event := &domain.Event{
		UserID:         in.UserID,
		EventType:      in.EventType,
		EventTimestamp: in.EventTimestamp.UTC(),
		Properties:     in.Properties,
	}
	if in.UserTraits != nil {
		event.Traits = &domain.UserTraits{
			Email:          in.UserTraits.Email,
			Country:        in.UserTraits.Country,
			MarketingOptIn: in.UserTraits.MarketingOptIn,
			RiskSegment:    in.UserTraits.RiskSegment,
		}
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin decision: %w", err)
	}
	defer tx.Rollback()

	events := tx.Events()
	if err := events.Add(ctx, event); err != nil {
		return nil, fmt.Errorf("persist event: %w", err)
	}

	// The evaluator reads prior events through the open transaction, so the
	// event just persisted is visible to its own rule conditions.
	decision, err := s.evaluator.Evaluate(ctx, events, event, event.Traits)
	if err != nil {
		return nil, fmt.Errorf("evaluate rules: %w", err)
	}

	gate := gatekeeper.NewService(tx.SendRequests())
	outcome, suppressReason, err := gate.Evaluate(ctx, event.UserID, event.EventTimestamp, decision)
	if err != nil {
		return nil, fmt.Errorf("suppression gate: %w", err)
	}

	channel := decision.DeliveryMethod
	switch decision.ActionType {
	case domain.ActionAlert:
		channel = domain.ChannelInternal
	case domain.ActionNone:
		channel = ""
	}

	reason := decision.Reason
	if outcome == domain.OutcomeSuppress {
		reason = suppressReason
	}

	switch outcome {
	case domain.OutcomeAllow, domain.OutcomeAlert:
		sendReason := fmt.Sprintf("rule:%s", *decision.MatchedRule)
		ts := event.EventTimestamp
		sr := &domain.SendRequest{
			UserID:         event.UserID,
			EventID:        &event.ID,
			EventTimestamp: &ts,
			TemplateName:   decision.TemplateName,
			Channel:        channel,
			Reason:         sendReason,
		}
		if err := tx.SendRequests().Add(ctx, sr); err != nil {
			return nil, fmt.Errorf("record send request: %w", err)
		}

		msg := provider.Message{
			UserID:       event.UserID,
			TemplateName: decision.TemplateName,
			Channel:      channel,
			Reason:       sendReason,
			Traits:       event.Traits,
			Properties:   event.Properties,
		}
		if err := s.provider.Send(ctx, msg); err != nil {
			return nil, fmt.Errorf("deliver message: %w", err)
		}

	case domain.OutcomeSuppress:
		sup := &domain.Suppression{
			UserID:            event.UserID,
			EventID:           &event.ID,
			TemplateName:      decision.TemplateName,
			SuppressionReason: suppressReason,
		}
		if err := tx.Suppressions().Add(ctx, sup); err != nil {
			return nil, fmt.Errorf("record suppression: %w", err)
		}
	}

	auditRow := &domain.Decision{
		UserID:      event.UserID,
		EventID:     event.ID,
		EventType:   event.EventType,
		MatchedRule: decision.MatchedRule,
		ActionType:  decision.ActionType,
		Outcome:     outcome,
		Reason:      reason,
	}
	if decision.TemplateName != "" {
		tmpl := decision.TemplateName
		auditRow.TemplateName = &tmpl
	}
	if channel != "" {
		ch := channel
		auditRow.Channel = &ch
	}
	if err := tx.Decisions().Add(ctx, auditRow); err != nil {
		return nil, fmt.Errorf("record decision: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit decision: %w", err)
	}

	log.Printf("[Processing] Event %s (%s) for user %s: outcome=%s reason=%q",
		event.ID, event.EventType, event.UserID, outcome, reason)

	if s.metrics != nil {
		s.metrics.Record(*auditRow)
	}

	return &Result{
		EventID:      event.ID,
		UserID:       event.UserID,
		EventType:    event.EventType,
		MatchedRule:  decision.MatchedRule,
		ActionType:   decision.ActionType,
		TemplateName: decision.TemplateName,
		Channel:      channel,
		Outcome:      outcome,
		Reason:       reason,
	}, nil
}
