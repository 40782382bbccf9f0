package registry

import (
	"context"

	"github.com/google/uuid"
)

// Store persists voter records. Implementations return sentinel errors:
// ErrConflict when the external key already has a non-rejected record,
// ErrNotFound on unknown ids.
type Store interface {
	Create(ctx context.Context, record *VoterRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*VoterRecord, error)
	// UpdateReview applies a review outcome. The store only touches review
	// fields; identity fields are immutable after Create. The write is a
	// compare-and-set on the pending state: ErrInvalidState when the record
	// was already reviewed, so concurrent decisions cannot overwrite each
	// other.
	UpdateReview(ctx context.Context, record *VoterRecord) error
	// List returns records ordered by creation time, optionally filtered by
	// state (empty state means all).
	List(ctx context.Context, state VerificationState) ([]*VoterRecord, error)
}
