package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// PostgresStore appends audit events to the audit_events table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	query := `
		INSERT INTO audit_events (id, action, election_id, subject_id, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		string(event.Action),
		nullUUID(event.ElectionID),
		nullUUID(event.SubjectID),
		event.Detail,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByElection(ctx context.Context, electionID uuid.UUID) ([]Event, error) {
	return s.list(ctx, `
		SELECT id, action, election_id, subject_id, detail, created_at
		FROM audit_events WHERE election_id = $1 ORDER BY created_at, id
	`, electionID)
}

func (s *PostgresStore) ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]Event, error) {
	return s.list(ctx, `
		SELECT id, action, election_id, subject_id, detail, created_at
		FROM audit_events WHERE subject_id = $1 ORDER BY created_at, id
	`, subjectID)
}

func (s *PostgresStore) list(ctx context.Context, query string, key uuid.UUID) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, query, key)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var event Event
		var action string
		var electionID, subjectID uuid.NullUUID
		if err := rows.Scan(&event.ID, &action, &electionID, &subjectID, &event.Detail, &event.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Action = Action(action)
		event.ElectionID = electionID.UUID
		event.SubjectID = subjectID.UUID
		events = append(events, event)
	}
	return events, rows.Err()
}

func nullUUID(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: id != uuid.Nil}
}
