// Package ballot implements the append-only ballot box. Casting a ballot
// consumes the voter's credential and appends the ballot in one atomic
// step, with a strictly increasing per-election sequence number. Ballots
// reference the credential that cast them, never the voter.
package ballot

import (
	"time"

	"github.com/google/uuid"
)

// Ballot is one committed vote. The stored row carries no voter identity;
// linking a ballot back to a person requires joining through the credential
// table, which is an administrative action outside this package.
type Ballot struct {
	ID           uuid.UUID `json:"id"`
	ElectionID   uuid.UUID `json:"election_id"`
	CandidateID  uuid.UUID `json:"candidate_id"`
	CredentialID uuid.UUID `json:"credential_id"`
	Sequence     int64     `json:"sequence"`
	CastAt       time.Time `json:"cast_at"`
}

// Receipt is what the voter gets back. It proves submission without
// revealing the vote or the voter.
type Receipt struct {
	BallotID   uuid.UUID `json:"ballot_id"`
	ElectionID uuid.UUID `json:"election_id"`
	Sequence   int64     `json:"sequence"`
	CastAt     time.Time `json:"cast_at"`
}

func (b *Ballot) Receipt() Receipt {
	return Receipt{
		BallotID:   b.ID,
		ElectionID: b.ElectionID,
		Sequence:   b.Sequence,
		CastAt:     b.CastAt,
	}
}
