package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	pgplatform "quorum/internal/platform/postgres"
	"quorum/pkg/platform/sentinel"
)

// PostgresStore persists voter records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, record *VoterRecord) error {
	query := `
		INSERT INTO voters (id, full_name, email, phone, external_key, document_ref, photo_ref, state, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		record.ID,
		record.FullName,
		record.Email,
		record.Phone,
		record.ExternalKey,
		record.Evidence.DocumentRef,
		record.Evidence.PhotoRef,
		string(record.State),
		record.CreatedAt,
	)
	if err != nil {
		if pgplatform.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert voter: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*VoterRecord, error) {
	query := `
		SELECT id, full_name, email, phone, external_key, document_ref, photo_ref,
		       state, rejection_reason, reviewed_at, created_at
		FROM voters WHERE id = $1
	`
	record, err := scanVoter(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find voter: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) UpdateReview(ctx context.Context, record *VoterRecord) error {
	query := `
		UPDATE voters SET state = $2, rejection_reason = $3, reviewed_at = $4
		WHERE id = $1 AND state = 'pending'
	`
	res, err := s.db.ExecContext(ctx, query,
		record.ID,
		string(record.State),
		record.RejectionReason,
		record.ReviewedAt,
	)
	if err != nil {
		return fmt.Errorf("update voter review: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update voter review: %w", err)
	}
	if rows == 0 {
		// Distinguish an unknown voter from one already reviewed.
		var state string
		err := s.db.QueryRowContext(ctx, `SELECT state FROM voters WHERE id = $1`, record.ID).Scan(&state)
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("update voter review: %w", err)
		}
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, state VerificationState) ([]*VoterRecord, error) {
	query := `
		SELECT id, full_name, email, phone, external_key, document_ref, photo_ref,
		       state, rejection_reason, reviewed_at, created_at
		FROM voters
		WHERE ($1 = '' OR state = $1)
		ORDER BY created_at, id
	`
	rows, err := s.db.QueryContext(ctx, query, string(state))
	if err != nil {
		return nil, fmt.Errorf("list voters: %w", err)
	}
	defer rows.Close()

	var records []*VoterRecord
	for rows.Next() {
		record, err := scanVoter(rows)
		if err != nil {
			return nil, fmt.Errorf("scan voter: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVoter(row rowScanner) (*VoterRecord, error) {
	var record VoterRecord
	var state string
	var reviewedAt sql.NullTime
	err := row.Scan(
		&record.ID,
		&record.FullName,
		&record.Email,
		&record.Phone,
		&record.ExternalKey,
		&record.Evidence.DocumentRef,
		&record.Evidence.PhotoRef,
		&state,
		&record.RejectionReason,
		&reviewedAt,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	record.State = VerificationState(state)
	if reviewedAt.Valid {
		record.ReviewedAt = &reviewedAt.Time
	}
	return &record, nil
}
