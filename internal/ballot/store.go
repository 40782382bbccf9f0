package ballot

import (
	"context"

	"github.com/google/uuid"
)

// Store reads committed ballots. Writes go through CastTx only.
type Store interface {
	ListByElection(ctx context.Context, electionID uuid.UUID) ([]*Ballot, error)
	CountByElection(ctx context.Context, electionID uuid.UUID) (int64, error)
}

// CastTx commits one cast: it flips the credential's consumed flag and
// appends the ballot as a single indivisible step, assigning b.Sequence
// from the election's counter. Contract:
// - two commits on the same credential serialize; exactly one succeeds and
//   the loser sees ErrAlreadyUsed,
// - commits on different credentials do not block each other beyond the
//   per-election sequence assignment,
// - on any failure neither write survives,
// - once started the commit is not interrupted by caller cancellation.
type CastTx interface {
	CommitCast(ctx context.Context, b *Ballot) error
}
