// Package registry owns voter identity records and their verification
// lifecycle. Records are append-only: review transitions state but never
// rewrites identity fields, and a rejected voter re-registers as a new
// record so the audit history stays intact.
package registry

import (
	"time"

	"github.com/google/uuid"
)

// VerificationState is the review status of one registration attempt.
type VerificationState string

const (
	StatePending  VerificationState = "pending"
	StateVerified VerificationState = "verified"
	StateRejected VerificationState = "rejected"
)

// CanTransition reports whether moving to next is a listed transition.
// Pending is the only non-terminal state.
func (s VerificationState) CanTransition(next VerificationState) bool {
	return s == StatePending && (next == StateVerified || next == StateRejected)
}

// Evidence references the submitted identity documents. The engine stores
// opaque handles; interpreting the blobs is an external concern.
type Evidence struct {
	DocumentRef string `json:"document_ref"`
	PhotoRef    string `json:"photo_ref"`
}

// VoterRecord is one registration attempt for one person.
type VoterRecord struct {
	ID              uuid.UUID         `json:"id"`
	FullName        string            `json:"full_name"`
	Email           string            `json:"email"`
	Phone           string            `json:"phone"`
	ExternalKey     string            `json:"external_key"`
	Evidence        Evidence          `json:"evidence"`
	State           VerificationState `json:"state"`
	RejectionReason string            `json:"rejection_reason,omitempty"`
	ReviewedAt      *time.Time        `json:"reviewed_at,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

// Identity carries the caller-supplied fields of a registration request.
type Identity struct {
	FullName    string
	Email       string
	Phone       string
	ExternalKey string
}

// Decision is a review outcome.
type Decision string

const (
	DecisionVerify Decision = "verify"
	DecisionReject Decision = "reject"
)
