package credential

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	pgplatform "quorum/internal/platform/postgres"
	"quorum/pkg/platform/sentinel"
	txcontext "quorum/pkg/platform/tx"
)

// PostgresStore persists credentials in PostgreSQL. Consume participates in
// the cast transaction when one is carried in the context.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Create(ctx context.Context, c *Credential) error {
	query := `
		INSERT INTO credentials (id, code, voter_id, election_id, issued_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query, c.ID, c.Code, c.VoterID, c.ElectionID, c.IssuedAt)
	if err != nil {
		if pgplatform.IsUniqueViolation(err) {
			// Two unique indexes can fire: the pair index means a credential
			// already exists for this voter and election; the code index
			// means the random draw collided.
			if strings.Contains(err.Error(), "credentials_code_key") {
				return sentinel.ErrConflict
			}
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByCode(ctx context.Context, code string) (*Credential, error) {
	return s.find(ctx, `
		SELECT id, code, voter_id, election_id, issued_at, consumed, consumed_at
		FROM credentials WHERE code = $1
	`, code)
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*Credential, error) {
	return s.find(ctx, `
		SELECT id, code, voter_id, election_id, issued_at, consumed, consumed_at
		FROM credentials WHERE id = $1
	`, id)
}

func (s *PostgresStore) find(ctx context.Context, query string, arg any) (*Credential, error) {
	var c Credential
	var consumedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&c.ID, &c.Code, &c.VoterID, &c.ElectionID, &c.IssuedAt, &c.Consumed, &consumedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find credential: %w", err)
	}
	if consumedAt.Valid {
		c.ConsumedAt = &consumedAt.Time
	}
	return &c, nil
}

// Consume is a compare-and-set on the consumed flag. The row lock taken by
// the UPDATE serializes concurrent casts of the same credential.
func (s *PostgresStore) Consume(ctx context.Context, id uuid.UUID) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE credentials SET consumed = TRUE, consumed_at = NOW()
		WHERE id = $1 AND consumed = FALSE
	`, id)
	if err != nil {
		return fmt.Errorf("consume credential: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("consume credential: %w", err)
	}
	if rows == 0 {
		var consumed bool
		err := s.db.QueryRowContext(ctx, `SELECT consumed FROM credentials WHERE id = $1`, id).Scan(&consumed)
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("consume credential: %w", err)
		}
		return sentinel.ErrAlreadyUsed
	}
	return nil
}
