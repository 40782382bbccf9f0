// Package handler exposes ballot casting over HTTP. The response is a
// receipt only; it never echoes the vote or any voter identity.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"quorum/internal/ballot"
	"quorum/internal/transport/http/shared"
	dErrors "quorum/pkg/domain-errors"
)

// Service defines the ballot operations the handler needs.
type Service interface {
	Cast(ctx context.Context, code string, candidateID uuid.UUID) (*ballot.Receipt, error)
}

type Handler struct {
	ballots Service
	logger  *slog.Logger
}

func New(ballots Service, logger *slog.Logger) *Handler {
	return &Handler{ballots: ballots, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/votes", h.handleCast)
}

type castRequest struct {
	Code        string    `json:"code"`
	CandidateID uuid.UUID `json:"candidate_id"`
}

func (h *Handler) handleCast(w http.ResponseWriter, r *http.Request) {
	var req castRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	if req.CandidateID == uuid.Nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "candidate_id is required"))
		return
	}

	receipt, err := h.ballots.Cast(r.Context(), req.Code, req.CandidateID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, receipt)
}
