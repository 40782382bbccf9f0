package credential

import (
	"context"

	"github.com/google/uuid"
)

// Store persists credentials. Sentinel contract:
// - Create: ErrAlreadyUsed when any credential (consumed or not) exists for
//   the (voter, election) pair; ErrConflict when the code collides.
// - FindByCode: ErrNotFound for unknown codes.
// - Consume: compare-and-set on the consumed flag; ErrAlreadyUsed when the
//   flag was already set, ErrNotFound for unknown ids. Inside a cast
//   transaction this is the point of truth for at-most-once casting.
type Store interface {
	Create(ctx context.Context, c *Credential) error
	FindByCode(ctx context.Context, code string) (*Credential, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Credential, error)
	Consume(ctx context.Context, id uuid.UUID) error
}
