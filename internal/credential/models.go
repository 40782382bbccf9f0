// Package credential mints and validates single-use voter codes. A
// credential binds one verified voter to one election's ballot box; once
// consumed by a successful cast it is permanently invalid, and no second
// credential may ever be issued for the pair.
package credential

import (
	"time"

	"github.com/google/uuid"
)

// Credential is one single-use voting code.
type Credential struct {
	ID         uuid.UUID  `json:"id"`
	Code       string     `json:"code"`
	VoterID    uuid.UUID  `json:"voter_id"`
	ElectionID uuid.UUID  `json:"election_id"`
	IssuedAt   time.Time  `json:"issued_at"`
	Consumed   bool       `json:"consumed"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty"`
}
