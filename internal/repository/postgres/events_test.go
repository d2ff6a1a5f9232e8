package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/messaging-engine/internal/domain"
	"github.com/ignite/messaging-engine/internal/service/audit"
)

var eventCols = []string{
	"id", "user_id", "event_type", "event_timestamp", "properties", "created_at",
	"event_id", "email", "country", "marketing_opt_in", "risk_segment",
}

func createdAtRow() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"created_at"}).
		AddRow(time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC))
}

func decidedAtRow() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"decided_at"}).
		AddRow(time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC))
}

func TestEventRepoAddWithTraits(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEventRepo(db)

	ts := time.Date(2025, 1, 1, 9, 59, 0, 0, time.UTC)
	created := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO events").
		WithArgs(sqlmock.AnyArg(), "u1", "signup_completed", ts, []byte(`{"plan":"pro"}`)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))
	mock.ExpectExec("INSERT INTO user_traits").
		WithArgs(sqlmock.AnyArg(), "a@example.com", nil, true, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	email := "a@example.com"
	optIn := true
	ev := &domain.Event{
		UserID:         "u1",
		EventType:      "signup_completed",
		EventTimestamp: ts,
		Properties:     map[string]any{"plan": "pro"},
		Traits:         &domain.UserTraits{Email: &email, MarketingOptIn: &optIn},
	}
	require.NoError(t, repo.Add(context.Background(), ev))

	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, ev.ID, ev.Traits.EventID)
	assert.Equal(t, created, ev.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepoAddWithoutTraits(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEventRepo(db)

	ts := time.Date(2025, 1, 1, 9, 59, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO events").
		WithArgs(sqlmock.AnyArg(), "u2", "payment_failed", ts, []byte(`{}`)).
		WillReturnRows(createdAtRow())

	ev := &domain.Event{UserID: "u2", EventType: "payment_failed", EventTimestamp: ts}
	require.NoError(t, repo.Add(context.Background(), ev))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepoGetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEventRepo(db)

	ts := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM events e").
		WithArgs("evt-1").
		WillReturnRows(sqlmock.NewRows(eventCols).AddRow(
			"evt-1", "u1", "signup_completed", ts, []byte(`{}`), ts,
			nil, nil, nil, nil, nil,
		))

	ev, err := repo.GetByID(context.Background(), "evt-1")
	require.NoError(t, err)
	assert.Equal(t, "u1", ev.UserID)
	assert.Nil(t, ev.Traits)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepoGetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEventRepo(db)

	mock.ExpectQuery("FROM events e").
		WithArgs("no-such-event").
		WillReturnRows(sqlmock.NewRows(eventCols))

	_, err := repo.GetByID(context.Background(), "no-such-event")
	assert.ErrorIs(t, err, audit.ErrEventNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepoGetLatestByUserAndType(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEventRepo(db)

	ts := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	created := time.Date(2025, 1, 1, 9, 0, 1, 0, time.UTC)
	mock.ExpectQuery("FROM events e").
		WithArgs("u1", "signup_completed").
		WillReturnRows(sqlmock.NewRows(eventCols).AddRow(
			"evt-1", "u1", "signup_completed", ts, []byte(`{"plan":"pro"}`), created,
			"evt-1", "a@example.com", nil, true, nil,
		))

	ev, err := repo.GetLatestByUserAndType(context.Background(), "u1", "signup_completed")
	require.NoError(t, err)
	require.NotNil(t, ev)

	assert.Equal(t, "evt-1", ev.ID)
	assert.Equal(t, ts, ev.EventTimestamp)
	assert.Equal(t, "pro", ev.Properties["plan"])
	require.NotNil(t, ev.Traits)
	assert.Equal(t, "a@example.com", *ev.Traits.Email)
	assert.Nil(t, ev.Traits.Country)
	assert.True(t, *ev.Traits.MarketingOptIn)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepoGetLatestNoRows(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEventRepo(db)

	mock.ExpectQuery("FROM events e").
		WithArgs("u1", "link_bank_success").
		WillReturnRows(sqlmock.NewRows(eventCols))

	ev, err := repo.GetLatestByUserAndType(context.Background(), "u1", "link_bank_success")
	require.NoError(t, err)
	assert.Nil(t, ev)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepoListByUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEventRepo(db)

	newer := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	older := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM events e").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(eventCols).
			AddRow("evt-2", "u1", "payment_failed", newer, []byte(`{}`), newer, nil, nil, nil, nil, nil).
			AddRow("evt-1", "u1", "signup_completed", older, []byte(`{}`), older, nil, nil, nil, nil, nil))

	events, err := repo.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "evt-2", events[0].ID)
	assert.Nil(t, events[0].Traits)
	assert.Equal(t, "evt-1", events[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
