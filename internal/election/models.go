// Package election owns election metadata and the draft → active →
// completed lifecycle. The lifecycle state is the sole gating authority for
// ballot acceptance; start/end timestamps are advisory display metadata and
// the engine never self-transitions on the clock.
package election

import (
	"time"

	"github.com/google/uuid"
)

// LifecycleState is the authoritative phase of an election.
type LifecycleState string

const (
	StateDraft     LifecycleState = "draft"
	StateActive    LifecycleState = "active"
	StateCompleted LifecycleState = "completed"
)

// CanTransition reports whether moving to next is a listed transition.
// No transition skips a state; none reverses.
func (s LifecycleState) CanTransition(next LifecycleState) bool {
	switch s {
	case StateDraft:
		return next == StateActive
	case StateActive:
		return next == StateCompleted
	default:
		return false
	}
}

// Candidate is one choice on the ballot. The list is frozen the moment the
// election leaves draft.
type Candidate struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Affiliation string    `json:"affiliation"`
}

// Election metadata plus its ordered candidate set.
type Election struct {
	ID          uuid.UUID      `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	State       LifecycleState `json:"state"`
	StartAt     *time.Time     `json:"start_at,omitempty"`
	EndAt       *time.Time     `json:"end_at,omitempty"`
	Candidates  []Candidate    `json:"candidates"`
	CreatedAt   time.Time      `json:"created_at"`
}

// HasCandidate reports whether id is in the candidate set.
func (e *Election) HasCandidate(id uuid.UUID) bool {
	for _, c := range e.Candidates {
		if c.ID == id {
			return true
		}
	}
	return false
}

// MinCandidates is the smallest candidate set an election may activate with.
const MinCandidates = 2
