package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/ignite/messaging-engine/internal/domain"
)

// DecisionRepo persists the audit record written for every ingested event.
type DecisionRepo struct{ db DBTX }

// NewDecisionRepo creates a Postgres-backed decision repository.
func NewDecisionRepo(db DBTX) *DecisionRepo { return &DecisionRepo{db: db} }

func (r *DecisionRepo) Add(ctx context.Context, d *domain.Decision) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO decisions
			(id, user_id, event_id, event_type, matched_rule, action_type,
			 outcome, reason, template_name, channel)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`, d.ID, d.UserID, d.EventID, d.EventType, d.MatchedRule, d.ActionType,
		d.Outcome, d.Reason, d.TemplateName, d.Channel).Scan(&d.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert decision: %w", err)
	}
	return nil
}

func (r *DecisionRepo) ListByUser(ctx context.Context, userID string) ([]domain.Decision, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, event_id, event_type, matched_rule, action_type,
		       outcome, reason, template_name, channel, created_at
		FROM decisions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	var out []domain.Decision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	return out, nil
}

func scanDecision(rs rowScanner) (*domain.Decision, error) {
	var (
		d        domain.Decision
		matched  sql.NullString
		template sql.NullString
		channel  sql.NullString
	)
	err := rs.Scan(&d.ID, &d.UserID, &d.EventID, &d.EventType, &matched,
		&d.ActionType, &d.Outcome, &d.Reason, &template, &channel, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	d.MatchedRule = nullStr(matched)
	d.TemplateName = nullStr(template)
	if channel.Valid {
		ch := domain.Channel(channel.String)
		d.Channel = &ch
	}
	return &d, nil
}
