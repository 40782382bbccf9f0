package ballot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"quorum/internal/credential"
	pgplatform "quorum/internal/platform/postgres"
	"quorum/pkg/platform/sentinel"
	platformtx "quorum/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) ListByElection(ctx context.Context, electionID uuid.UUID) ([]*Ballot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, election_id, candidate_id, credential_id, sequence, cast_at
		FROM ballots
		WHERE election_id = $1
		ORDER BY sequence`, electionID)
	if err != nil {
		return nil, fmt.Errorf("query ballots: %w", err)
	}
	defer rows.Close()

	var out []*Ballot
	for rows.Next() {
		var b Ballot
		if err := rows.Scan(&b.ID, &b.ElectionID, &b.CandidateID, &b.CredentialID, &b.Sequence, &b.CastAt); err != nil {
			return nil, fmt.Errorf("scan ballot: %w", err)
		}
		out = append(out, &b)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CountByElection(ctx context.Context, electionID uuid.UUID) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ballots WHERE election_id = $1`, electionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count ballots: %w", err)
	}
	return n, nil
}

// SQLCastTx commits a cast inside one database transaction. The row lock
// taken by the credential UPDATE serializes reuse of the same credential;
// the row lock on the election's sequence counter serializes sequence
// assignment without blocking casts for other elections.
type SQLCastTx struct {
	db          *sql.DB
	credentials *credential.PostgresStore
}

func NewSQLCastTx(db *sql.DB, credentials *credential.PostgresStore) *SQLCastTx {
	return &SQLCastTx{db: db, credentials: credentials}
}

func (t *SQLCastTx) CommitCast(ctx context.Context, b *Ballot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// The commit runs under its own lifetime so an abandoned request cannot
	// abort a transaction that already consumed the credential.
	ctx = context.WithoutCancel(ctx)

	sqlTx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cast transaction: %w", err)
	}
	txCtx := platformtx.WithTx(ctx, sqlTx)

	if err := t.commit(txCtx, sqlTx, b); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("rollback cast (%w): %w", err, rbErr)
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit cast: %w", err)
	}
	return nil
}

func (t *SQLCastTx) commit(ctx context.Context, sqlTx *sql.Tx, b *Ballot) error {
	// Point of truth first: the consumed flag flips before the ballot
	// exists, and both become visible together at commit.
	if err := t.credentials.Consume(ctx, b.CredentialID); err != nil {
		return err
	}

	err := sqlTx.QueryRowContext(ctx, `
		UPDATE elections
		SET last_sequence = last_sequence + 1
		WHERE id = $1
		RETURNING last_sequence`, b.ElectionID).Scan(&b.Sequence)
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("advance sequence: %w", err)
	}

	_, err = sqlTx.ExecContext(ctx, `
		INSERT INTO ballots (id, election_id, candidate_id, credential_id, sequence, cast_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		b.ID, b.ElectionID, b.CandidateID, b.CredentialID, b.Sequence, b.CastAt)
	if err != nil {
		if pgplatform.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert ballot: %w", err)
	}
	return nil
}
