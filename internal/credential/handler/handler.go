// Package handler exposes credential issuance (admin) and code validation
// (public, read-only) over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"quorum/internal/credential"
	"quorum/internal/platform/middleware"
	"quorum/internal/transport/http/shared"
	dErrors "quorum/pkg/domain-errors"
)

// Service defines the credential operations the handler needs.
type Service interface {
	Issue(ctx context.Context, voterID, electionID uuid.UUID) (*credential.Credential, error)
	Validate(ctx context.Context, code string) (*credential.Credential, error)
}

type Handler struct {
	credentials Service
	admin       middleware.TokenValidator
	logger      *slog.Logger
}

func New(credentials Service, admin middleware.TokenValidator, logger *slog.Logger) *Handler {
	return &Handler{credentials: credentials, admin: admin, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/credentials/validate", h.handleValidate)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin(h.admin, h.logger))
		r.Post("/credentials", h.handleIssue)
	})
}

type issueRequest struct {
	VoterID    uuid.UUID `json:"voter_id"`
	ElectionID uuid.UUID `json:"election_id"`
}

func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	if req.VoterID == uuid.Nil || req.ElectionID == uuid.Nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "voter_id and election_id are required"))
		return
	}

	c, err := h.credentials.Issue(r.Context(), req.VoterID, req.ElectionID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, c)
}

type validateRequest struct {
	Code string `json:"code"`
}

// validateResponse deliberately omits the voter id so the public endpoint
// never links a code to a person.
type validateResponse struct {
	Valid      bool      `json:"valid"`
	ElectionID uuid.UUID `json:"election_id"`
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	c, err := h.credentials.Validate(r.Context(), req.Code)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, validateResponse{Valid: true, ElectionID: c.ElectionID})
}
