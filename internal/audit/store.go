package audit

import (
	"context"

	"github.com/google/uuid"
)

// Store is an append-only sink. No update or delete operations exist.
type Store interface {
	Append(ctx context.Context, event Event) error
	// ListByElection returns events for one election in append order.
	ListByElection(ctx context.Context, electionID uuid.UUID) ([]Event, error)
	// ListBySubject returns events naming a subject (voter or credential).
	ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]Event, error)
}
