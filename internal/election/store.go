package election

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// errTooFewCandidates marks a draft → active transition refused by the
// store-level candidate count guard, as opposed to a wrong current state.
var errTooFewCandidates = errors.New("too few candidates")

// Store persists elections and their candidate sets. Candidate mutations and
// state transitions are atomic with respect to each other: AddCandidate and
// RemoveCandidate fail with sentinel.ErrInvalidState unless the election is
// still in draft at the moment of the write, and TransitionState is a
// compare-and-set on the current state. This is what makes the candidate
// freeze and the activate/complete exclusivity hold under concurrency.
type Store interface {
	Create(ctx context.Context, e *Election) error
	FindByID(ctx context.Context, id uuid.UUID) (*Election, error)
	List(ctx context.Context) ([]*Election, error)
	AddCandidate(ctx context.Context, electionID uuid.UUID, candidate Candidate) error
	RemoveCandidate(ctx context.Context, electionID, candidateID uuid.UUID) error
	// TransitionState moves id from one state to another; ErrInvalidState
	// when the stored state is not `from`. The draft → active edge
	// additionally requires MinCandidates candidates at the moment of the
	// write and fails with errTooFewCandidates otherwise, closing the race
	// with a concurrent RemoveCandidate.
	TransitionState(ctx context.Context, id uuid.UUID, from, to LifecycleState) error
}
