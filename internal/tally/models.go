// Package tally derives per-candidate counts from the committed ballot
// log. Counts are never incremented alongside a cast; they are recomputed
// from the log on demand, so the log stays the single source of truth.
package tally

import (
	"time"

	"github.com/google/uuid"
)

// CandidateCount is one candidate's line in a tally, in ballot order.
type CandidateCount struct {
	CandidateID uuid.UUID `json:"candidate_id"`
	Name        string    `json:"name"`
	Votes       int64     `json:"votes"`
}

// Result is a full tally. Counts cover every candidate on the ballot in
// their listed order, zero-filled for candidates with no votes, so two
// recomputations over the same log are byte-for-byte identical. Final is
// set only once the election has completed and no further ballot can
// arrive.
type Result struct {
	ElectionID uuid.UUID        `json:"election_id"`
	Counts     []CandidateCount `json:"counts"`
	Total      int64            `json:"total"`
	Final      bool             `json:"final"`
	ComputedAt time.Time        `json:"computed_at"`
}
