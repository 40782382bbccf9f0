// Package admin issues operator sessions. Administrative operations
// (verification review, lifecycle transitions, listings) require a token
// from here; voter-facing operations never do.
package admin

import (
	"golang.org/x/crypto/bcrypt"

	dErrors "quorum/pkg/domain-errors"
)

// Service exchanges the operator password for a signed session token.
type Service struct {
	passwordHash []byte
	tokens       *TokenService
}

// NewService builds the admin service. passwordHash is a bcrypt hash; when
// empty, login is disabled and every attempt fails.
func NewService(passwordHash string, tokens *TokenService) *Service {
	return &Service{passwordHash: []byte(passwordHash), tokens: tokens}
}

// Login verifies the operator password and returns a session token.
func (s *Service) Login(operator, password string) (string, error) {
	if operator == "" || password == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "operator and password are required")
	}
	if len(s.passwordHash) == 0 {
		return "", dErrors.New(dErrors.CodeUnauthorized, "admin login is not configured")
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	token, err := s.tokens.GenerateToken(operator)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign session token")
	}
	return token, nil
}
