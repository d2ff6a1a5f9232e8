package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/messaging-engine/internal/domain"
)

// SendRequestRepo persists send intents and answers the suppression gate's
// history probes.
type SendRequestRepo struct{ db DBTX }

// NewSendRequestRepo creates a Postgres-backed send request repository.
func NewSendRequestRepo(db DBTX) *SendRequestRepo { return &SendRequestRepo{db: db} }

func (r *SendRequestRepo) Add(ctx context.Context, sr *domain.SendRequest) error {
	if sr.ID == "" {
		sr.ID = uuid.New().String()
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO send_requests (id, user_id, event_id, event_timestamp, template_name, channel, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING decided_at
	`, sr.ID, sr.UserID, sr.EventID, sr.EventTimestamp, sr.TemplateName, sr.Channel, sr.Reason).Scan(&sr.DecidedAt)
	if err != nil {
		return fmt.Errorf("insert send request: %w", err)
	}
	return nil
}

func (r *SendRequestRepo) ExistsForUserAndTemplate(ctx context.Context, userID, templateName string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM send_requests
			WHERE user_id = $1 AND template_name = $2
		)
	`, userID, templateName).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check send history: %w", err)
	}
	return exists, nil
}

// ExistsInDaySoFar reports whether a send request for the template exists
// strictly inside the UTC calendar day of at, before at itself. Rows at
// exactly midnight or at the probe instant do not count, nor do rows
// without an event timestamp.
func (r *SendRequestRepo) ExistsInDaySoFar(ctx context.Context, userID, templateName string, at time.Time) (bool, error) {
	at = at.UTC()
	dayStart := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)

	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM send_requests
			WHERE user_id = $1 AND template_name = $2
			  AND event_timestamp IS NOT NULL
			  AND event_timestamp > $3
			  AND event_timestamp < $4
		)
	`, userID, templateName, dayStart, at).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check day window: %w", err)
	}
	return exists, nil
}

func (r *SendRequestRepo) ListByUser(ctx context.Context, userID string) ([]domain.SendRequest, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, event_id, event_timestamp, template_name, channel, reason, decided_at
		FROM send_requests
		WHERE user_id = $1
		ORDER BY decided_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list send requests: %w", err)
	}
	defer rows.Close()

	var out []domain.SendRequest
	for rows.Next() {
		var (
			sr      domain.SendRequest
			eventID sql.NullString
			eventTS sql.NullTime
		)
		if err := rows.Scan(&sr.ID, &sr.UserID, &eventID, &eventTS,
			&sr.TemplateName, &sr.Channel, &sr.Reason, &sr.DecidedAt); err != nil {
			return nil, fmt.Errorf("scan send request: %w", err)
		}
		sr.EventID = nullStr(eventID)
		if eventTS.Valid {
			ts := eventTS.Time
			sr.EventTimestamp = &ts
		}
		out = append(out, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list send requests: %w", err)
	}
	return out, nil
}
