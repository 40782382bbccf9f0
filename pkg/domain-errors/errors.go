// Package domainerrors defines the code-carrying error type shared by all
// engine services. Stores speak sentinel errors; services wrap them here with
// a stable code; transport maps codes to HTTP statuses.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies one named failure condition. Codes are part of the API
// surface: clients branch on them, so they never change meaning.
type Code string

const (
	// Validation: rejected before touching state, safe to retry after correction.
	CodeBadRequest Code = "bad_request"

	// Eligibility and state errors: retrying with the same input cannot succeed.
	CodeDuplicateIdentity      Code = "duplicate_identity"
	CodeInvalidTransition      Code = "invalid_transition"
	CodeNotEligible            Code = "not_eligible"
	CodeNoSuchElection         Code = "no_such_election"
	CodeAlreadyIssued          Code = "already_issued"
	CodeInvalidCode            Code = "invalid_code"
	CodeAlreadyConsumed        Code = "already_consumed"
	CodeElectionNotActive      Code = "election_not_active"
	CodeUnknownCandidate       Code = "unknown_candidate"
	CodeInsufficientCandidates Code = "insufficient_candidates"

	// Conflict: lost a race; safe for the caller to retry transparently.
	CodeConflict Code = "conflict"

	CodeNotFound     Code = "not_found"
	CodeUnauthorized Code = "unauthorized"
	CodeTimeout      Code = "timeout"
	CodeInternal     Code = "internal"
)

// Error carries a code, a caller-safe message, and an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an error with a code and a caller-safe message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Is reports whether err (or anything it wraps) carries the given code.
func Is(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to the status the transport layer writes.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound, CodeNoSuchElection, CodeInvalidCode:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotEligible:
		return http.StatusForbidden
	case CodeDuplicateIdentity, CodeInvalidTransition, CodeAlreadyIssued,
		CodeAlreadyConsumed, CodeElectionNotActive, CodeInsufficientCandidates,
		CodeConflict:
		return http.StatusConflict
	case CodeUnknownCandidate:
		return http.StatusUnprocessableEntity
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
