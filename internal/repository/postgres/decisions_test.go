package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/messaging-engine/internal/domain"
)

func TestDecisionRepoAddNoMatch(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDecisionRepo(db)

	// A no-match decision carries no rule, template, or channel.
	mock.ExpectQuery("INSERT INTO decisions").
		WithArgs(sqlmock.AnyArg(), "u1", "evt-1", "some_event", nil,
			"none", "none", "No matching rule", nil, nil).
		WillReturnRows(createdAtRow())

	d := &domain.Decision{
		UserID:     "u1",
		EventID:    "evt-1",
		EventType:  "some_event",
		ActionType: domain.ActionNone,
		Outcome:    domain.OutcomeNone,
		Reason:     "No matching rule",
	}
	require.NoError(t, repo.Add(context.Background(), d))

	assert.NotEmpty(t, d.ID)
	assert.False(t, d.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecisionRepoListByUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDecisionRepo(db)

	created := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	cols := []string{"id", "user_id", "event_id", "event_type", "matched_rule",
		"action_type", "outcome", "reason", "template_name", "channel", "created_at"}
	mock.ExpectQuery("FROM decisions").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("d-2", "u1", "evt-2", "payment_failed", "high_risk_alert",
				"alert", "alert", "Matched rule: high_risk_alert", "HIGH_RISK_ALERT", "internal", created).
			AddRow("d-1", "u1", "evt-1", "some_event", nil,
				"none", "none", "No matching rule", nil, nil, created.Add(-time.Hour)))

	out, err := repo.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, out, 2)

	alert := out[0]
	assert.Equal(t, "high_risk_alert", *alert.MatchedRule)
	assert.Equal(t, domain.ActionAlert, alert.ActionType)
	assert.Equal(t, domain.OutcomeAlert, alert.Outcome)
	require.NotNil(t, alert.Channel)
	assert.Equal(t, domain.ChannelInternal, *alert.Channel)

	noMatch := out[1]
	assert.Nil(t, noMatch.MatchedRule)
	assert.Nil(t, noMatch.TemplateName)
	assert.Nil(t, noMatch.Channel)
	assert.NoError(t, mock.ExpectationsWereMet())
}
