package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ignite/messaging-engine/internal/domain"
	"github.com/ignite/messaging-engine/internal/service/audit"
)

// EventRepo persists lifecycle events and their point-in-time traits.
type EventRepo struct{ db DBTX }

// NewEventRepo creates a Postgres-backed event repository.
func NewEventRepo(db DBTX) *EventRepo { return &EventRepo{db: db} }

const selectEvent = `
	SELECT e.id, e.user_id, e.event_type, e.event_timestamp, e.properties, e.created_at,
	       t.event_id, t.email, t.country, t.marketing_opt_in, t.risk_segment
	FROM events e
	LEFT JOIN user_traits t ON t.event_id = e.id`

func (r *EventRepo) Add(ctx context.Context, ev *domain.Event) error {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}

	props := []byte("{}")
	if ev.Properties != nil {
		b, err := json.Marshal(ev.Properties)
		if err != nil {
			return fmt.Errorf("encode properties: %w", err)
		}
		props = b
	}

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO events (id, user_id, event_type, event_timestamp, properties)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, ev.ID, ev.UserID, ev.EventType, ev.EventTimestamp, props).Scan(&ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	if ev.Traits == nil {
		return nil
	}
	ev.Traits.EventID = ev.ID
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO user_traits (event_id, email, country, marketing_opt_in, risk_segment)
		VALUES ($1, $2, $3, $4, $5)
	`, ev.ID, ev.Traits.Email, ev.Traits.Country, ev.Traits.MarketingOptIn, ev.Traits.RiskSegment); err != nil {
		return fmt.Errorf("insert user traits: %w", err)
	}
	return nil
}

func (r *EventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	row := r.db.QueryRowContext(ctx, selectEvent+`
		WHERE e.id = $1`, id)

	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, audit.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return ev, nil
}

// GetLatestByUserAndType returns the newest event by event_timestamp, or
// nil when the user has no events of that type.
func (r *EventRepo) GetLatestByUserAndType(ctx context.Context, userID, eventType string) (*domain.Event, error) {
	row := r.db.QueryRowContext(ctx, selectEvent+`
		WHERE e.user_id = $1 AND e.event_type = $2
		ORDER BY e.event_timestamp DESC
		LIMIT 1`, userID, eventType)

	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest event: %w", err)
	}
	return ev, nil
}

func (r *EventRepo) ListByUser(ctx context.Context, userID string) ([]domain.Event, error) {
	rows, err := r.db.QueryContext(ctx, selectEvent+`
		WHERE e.user_id = $1
		ORDER BY e.event_timestamp DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []domain.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, *ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(rs rowScanner) (*domain.Event, error) {
	var (
		ev      domain.Event
		props   []byte
		traitID sql.NullString
		email   sql.NullString
		country sql.NullString
		optIn   sql.NullBool
		risk    sql.NullString
	)
	err := rs.Scan(
		&ev.ID, &ev.UserID, &ev.EventType, &ev.EventTimestamp, &props, &ev.CreatedAt,
		&traitID, &email, &country, &optIn, &risk,
	)
	if err != nil {
		return nil, err
	}

	if len(props) > 0 {
		if err := json.Unmarshal(props, &ev.Properties); err != nil {
			return nil, fmt.Errorf("decode properties: %w", err)
		}
	}
	if traitID.Valid {
		ev.Traits = &domain.UserTraits{
			EventID:        traitID.String,
			Email:          nullStr(email),
			Country:        nullStr(country),
			MarketingOptIn: nullBool(optIn),
			RiskSegment:    nullStr(risk),
		}
	}
	return &ev, nil
}
