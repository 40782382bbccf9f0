package election

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	pgplatform "quorum/internal/platform/postgres"
	"quorum/pkg/platform/sentinel"
)

// PostgresStore persists elections and candidates in PostgreSQL. Candidate
// writes and state transitions run in a transaction that takes the election
// row lock first, so the draft check, the candidate count and the write all
// see the same committed state.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, e *Election) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create election: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO elections (id, title, description, state, start_at, end_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.ID, e.Title, e.Description, string(e.State), e.StartAt, e.EndAt, e.CreatedAt)
	if err != nil {
		if pgplatform.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert election: %w", err)
	}

	for i, c := range e.Candidates {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO candidates (id, election_id, name, affiliation, position)
			VALUES ($1, $2, $3, $4, $5)
		`, c.ID, e.ID, c.Name, c.Affiliation, i); err != nil {
			return fmt.Errorf("insert candidate: %w", err)
		}
	}

	return tx.Commit()
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*Election, error) {
	var e Election
	var state string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, state, start_at, end_at, created_at
		FROM elections WHERE id = $1
	`, id).Scan(&e.ID, &e.Title, &e.Description, &state, &e.StartAt, &e.EndAt, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find election: %w", err)
	}
	e.State = LifecycleState(state)

	if err := s.loadCandidates(ctx, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*Election, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, state, start_at, end_at, created_at
		FROM elections ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list elections: %w", err)
	}
	defer rows.Close()

	var elections []*Election
	for rows.Next() {
		var e Election
		var state string
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &state, &e.StartAt, &e.EndAt, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan election: %w", err)
		}
		e.State = LifecycleState(state)
		elections = append(elections, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, e := range elections {
		if err := s.loadCandidates(ctx, e); err != nil {
			return nil, err
		}
	}
	return elections, nil
}

func (s *PostgresStore) AddCandidate(ctx context.Context, electionID uuid.UUID, candidate Candidate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add candidate: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	state, err := lockElection(ctx, tx, electionID)
	if err != nil {
		return err
	}
	if state != StateDraft {
		return sentinel.ErrInvalidState
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO candidates (id, election_id, name, affiliation, position)
		VALUES ($1, $2, $3, $4,
		        (SELECT COALESCE(MAX(position), -1) + 1 FROM candidates WHERE election_id = $2))
	`, candidate.ID, electionID, candidate.Name, candidate.Affiliation); err != nil {
		return fmt.Errorf("add candidate: %w", err)
	}
	return tx.Commit()
}

func (s *PostgresStore) RemoveCandidate(ctx context.Context, electionID, candidateID uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin remove candidate: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	state, err := lockElection(ctx, tx, electionID)
	if err != nil {
		return err
	}
	if state != StateDraft {
		return sentinel.ErrInvalidState
	}

	res, err := tx.ExecContext(ctx, `
		DELETE FROM candidates WHERE id = $2 AND election_id = $1
	`, electionID, candidateID)
	if err != nil {
		return fmt.Errorf("remove candidate: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove candidate: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return tx.Commit()
}

func (s *PostgresStore) TransitionState(ctx context.Context, id uuid.UUID, from, to LifecycleState) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transition: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	state, err := lockElection(ctx, tx, id)
	if err != nil {
		return err
	}
	if state != from {
		return sentinel.ErrInvalidState
	}
	if from == StateDraft && to == StateActive {
		// Counted under the row lock, so a concurrent candidate removal has
		// either committed already or is waiting behind this transaction.
		var count int
		if err := tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM candidates WHERE election_id = $1
		`, id).Scan(&count); err != nil {
			return fmt.Errorf("count candidates: %w", err)
		}
		if count < MinCandidates {
			return errTooFewCandidates
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE elections SET state = $2 WHERE id = $1
	`, id, string(to)); err != nil {
		return fmt.Errorf("transition election state: %w", err)
	}
	return tx.Commit()
}

// lockElection takes the election row lock and returns the committed state.
// Every candidate write and state transition serializes on this lock.
func lockElection(ctx context.Context, tx *sql.Tx, id uuid.UUID) (LifecycleState, error) {
	var state string
	err := tx.QueryRowContext(ctx, `
		SELECT state FROM elections WHERE id = $1 FOR UPDATE
	`, id).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("lock election: %w", err)
	}
	return LifecycleState(state), nil
}

func (s *PostgresStore) loadCandidates(ctx context.Context, e *Election) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, affiliation FROM candidates
		WHERE election_id = $1 ORDER BY position
	`, e.ID)
	if err != nil {
		return fmt.Errorf("load candidates: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.ID, &c.Name, &c.Affiliation); err != nil {
			return fmt.Errorf("scan candidate: %w", err)
		}
		e.Candidates = append(e.Candidates, c)
	}
	return rows.Err()
}
