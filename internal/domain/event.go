package domain

import "time"

// Event is a caller-supplied, timestamped record of something that happened
// to a user. Events are immutable once written.
type Event struct {
	ID             string         `json:"id" db:"id"`
	UserID         string         `json:"user_id" db:"user_id"`
	EventType      string         `json:"event_type" db:"event_type"`
	EventTimestamp time.Time      `json:"event_timestamp" db:"event_timestamp"`
	Properties     map[string]any `json:"properties,omitempty" db:"properties"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`

	// Traits is the optional 1:1 snapshot attached at ingest time.
	// It describes the user as they were when this event arrived, not the
	// user globally.
	Traits *UserTraits `json:"user_traits,omitempty" db:"-"`
}

// UserTraits is a per-event snapshot of user attributes. Every trait is
// optional; nil means "not provided with this event".
type UserTraits struct {
	EventID        string  `json:"event_id" db:"event_id"`
	Email          *string `json:"email,omitempty" db:"email"`
	Country        *string `json:"country,omitempty" db:"country"`
	MarketingOptIn *bool   `json:"marketing_opt_in,omitempty" db:"marketing_opt_in"`
	RiskSegment    *string `json:"risk_segment,omitempty" db:"risk_segment"`
}
