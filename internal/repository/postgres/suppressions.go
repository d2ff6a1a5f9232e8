package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/ignite/messaging-engine/internal/domain"
)

// SuppressionRepo persists sends withheld by the suppression gate.
type SuppressionRepo struct{ db DBTX }

// NewSuppressionRepo creates a Postgres-backed suppression repository.
func NewSuppressionRepo(db DBTX) *SuppressionRepo { return &SuppressionRepo{db: db} }

func (r *SuppressionRepo) Add(ctx context.Context, s *domain.Suppression) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO suppressions (id, user_id, event_id, template_name, suppression_reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING decided_at
	`, s.ID, s.UserID, s.EventID, s.TemplateName, s.SuppressionReason).Scan(&s.DecidedAt)
	if err != nil {
		return fmt.Errorf("insert suppression: %w", err)
	}
	return nil
}

func (r *SuppressionRepo) ListByUser(ctx context.Context, userID string) ([]domain.Suppression, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, event_id, template_name, suppression_reason, decided_at
		FROM suppressions
		WHERE user_id = $1
		ORDER BY decided_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list suppressions: %w", err)
	}
	defer rows.Close()

	var out []domain.Suppression
	for rows.Next() {
		var (
			s       domain.Suppression
			eventID sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.UserID, &eventID, &s.TemplateName,
			&s.SuppressionReason, &s.DecidedAt); err != nil {
			return nil, fmt.Errorf("scan suppression: %w", err)
		}
		s.EventID = nullStr(eventID)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list suppressions: %w", err)
	}
	return out, nil
}
