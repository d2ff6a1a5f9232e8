package domain

import "time"

// Channel identifies where a decided message is delivered.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelSMS      Channel = "sms"
	ChannelInternal Channel = "internal"
)

// Valid reports whether the channel is one of the supported values.
func (c Channel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelInternal:
		return true
	}
	return false
}

// SuppressionMode enumerates the per-template send-frequency guarantees a
// rule can declare.
type SuppressionMode string

const (
	SuppressOnceEver   SuppressionMode = "once_ever"
	SuppressOncePerDay SuppressionMode = "once_per_calendar_day"
	SuppressNone       SuppressionMode = "none"
)

// Valid reports whether the mode is one of the supported values.
func (m SuppressionMode) Valid() bool {
	switch m {
	case SuppressOnceEver, SuppressOncePerDay, SuppressNone:
		return true
	}
	return false
}

// SendRequest records that a message WAS dispatched for a (user, template)
// pair. EventTimestamp carries the triggering event's instant and drives the
// calendar-day suppression window; it is nullable because historic rows may
// predate the column.
type SendRequest struct {
	ID             string     `json:"id" db:"id"`
	UserID         string     `json:"user_id" db:"user_id"`
	EventID        *string    `json:"event_id,omitempty" db:"event_id"`
	EventTimestamp *time.Time `json:"event_timestamp,omitempty" db:"event_timestamp"`
	TemplateName   string     `json:"template_name" db:"template_name"`
	Channel        Channel    `json:"channel" db:"channel"`
	Reason         string     `json:"reason" db:"reason"`
	DecidedAt      time.Time  `json:"decided_at" db:"decided_at"`
}

// Suppression records that a message was NOT dispatched because a
// suppression mode vetoed it.
type Suppression struct {
	ID                string    `json:"id" db:"id"`
	UserID            string    `json:"user_id" db:"user_id"`
	EventID           *string   `json:"event_id,omitempty" db:"event_id"`
	TemplateName      string    `json:"template_name" db:"template_name"`
	SuppressionReason string    `json:"suppression_reason" db:"suppression_reason"`
	DecidedAt         time.Time `json:"decided_at" db:"decided_at"`
}
