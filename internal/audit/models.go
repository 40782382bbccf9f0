// Package audit keeps the append-only trail of engine actions. Ballot
// events carry the credential id and sequence but never a voter id, so the
// trail can prove at-most-once casting without breaking vote secrecy.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action names one audited engine operation.
type Action string

const (
	ActionVoterRegistered     Action = "voter_registered"
	ActionVerificationDecided Action = "verification_decided"
	ActionCredentialIssued    Action = "credential_issued"
	ActionElectionCreated     Action = "election_created"
	ActionElectionActivated   Action = "election_activated"
	ActionElectionCompleted   Action = "election_completed"
	ActionBallotCast          Action = "ballot_cast"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
//
// SubjectID is the voter id for registry/credential events and the
// credential id for ballot events; a ballot event must never carry a voter
// id.
type Event struct {
	ID         uuid.UUID
	Action     Action
	ElectionID uuid.UUID
	SubjectID  uuid.UUID
	Detail     string
	Timestamp  time.Time
}
