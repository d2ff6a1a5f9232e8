package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/messaging-engine/internal/service/processing"
)

// DBTX is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Repositories are written against it so the same code serves pool-bound
// reads and transactional writes.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store hands out pool-bound repositories and opens decision transactions.
type Store struct{ db *sql.DB }

// NewStore creates a Postgres-backed store over an open connection pool.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Events() *EventRepo             { return NewEventRepo(s.db) }
func (s *Store) SendRequests() *SendRequestRepo { return NewSendRequestRepo(s.db) }
func (s *Store) Suppressions() *SuppressionRepo { return NewSuppressionRepo(s.db) }
func (s *Store) Decisions() *DecisionRepo       { return NewDecisionRepo(s.db) }

// Begin opens the transaction that scopes one event decision.
func (s *Store) Begin(ctx context.Context) (processing.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// Tx exposes the repositories bound to a single transaction.
type Tx struct{ tx *sql.Tx }

func (t *Tx) Events() processing.EventStore             { return NewEventRepo(t.tx) }
func (t *Tx) SendRequests() processing.SendRequestStore { return NewSendRequestRepo(t.tx) }
func (t *Tx) Suppressions() processing.SuppressionStore { return NewSuppressionRepo(t.tx) }
func (t *Tx) Decisions() processing.DecisionStore       { return NewDecisionRepo(t.tx) }

func (t *Tx) Commit() error   { return t.tx.Commit() }
func (t *Tx) Rollback() error { return t.tx.Rollback() }

func nullStr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullBool(v sql.NullBool) *bool {
	if !v.Valid {
		return nil
	}
	b := v.Bool
	return &b
}
