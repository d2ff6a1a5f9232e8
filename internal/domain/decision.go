package domain

import "time"

// ActionType is what a matched rule wants to happen.
type ActionType string

const (
	ActionSend  ActionType = "send"
	ActionAlert ActionType = "alert"
	ActionNone  ActionType = "none"
)

// Outcome is what actually happened after the suppression gate ruled.
type Outcome string

const (
	OutcomeAllow    Outcome = "allow"
	OutcomeAlert    Outcome = "alert"
	OutcomeSuppress Outcome = "suppress"
	OutcomeNone     Outcome = "none"
)

// Valid reports whether the outcome is one of the supported values.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeAllow, OutcomeAlert, OutcomeSuppress, OutcomeNone:
		return true
	}
	return false
}

// Decision is the authoritative audit artifact, written exactly once per
// ingested event. Given the decisions for a user, an auditor can reconstruct
// why that user did or did not receive a given message.
type Decision struct {
	ID           string     `json:"id" db:"id"`
	UserID       string     `json:"user_id" db:"user_id"`
	EventID      string     `json:"event_id" db:"event_id"`
	EventType    string     `json:"event_type" db:"event_type"`
	MatchedRule  *string    `json:"matched_rule,omitempty" db:"matched_rule"`
	ActionType   ActionType `json:"action_type" db:"action_type"`
	Outcome      Outcome    `json:"outcome" db:"outcome"`
	Reason       string     `json:"reason" db:"reason"`
	TemplateName *string    `json:"template_name,omitempty" db:"template_name"`
	Channel      *Channel   `json:"channel,omitempty" db:"channel"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}
