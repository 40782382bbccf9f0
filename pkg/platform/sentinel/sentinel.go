package sentinel

import "errors"

// Sentinel errors for store-level facts. Stores return these (optionally
// wrapped) and services translate them into domain errors with codes.
//
// They describe the state of a resource, not bad input:
// - ErrNotFound: entity does not exist in the store
// - ErrConflict: a uniqueness constraint (code, external key) was violated
// - ErrAlreadyUsed: single-use resource (credential) already consumed
// - ErrInvalidState: entity in the wrong lifecycle state for the operation
// - ErrUnavailable: backing store temporarily unreachable
//
// Input validation failures use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrAlreadyUsed  = errors.New("already used")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
