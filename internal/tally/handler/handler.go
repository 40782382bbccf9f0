// Package handler exposes election results over HTTP. Results carry a
// final flag so callers can tell a provisional snapshot from the settled
// outcome.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"quorum/internal/tally"
	"quorum/internal/transport/http/shared"
	dErrors "quorum/pkg/domain-errors"
)

// Service defines the tally operations the handler needs.
type Service interface {
	Recompute(ctx context.Context, electionID uuid.UUID) (*tally.Result, error)
}

type Handler struct {
	tallies Service
	logger  *slog.Logger
}

func New(tallies Service, logger *slog.Logger) *Handler {
	return &Handler{tallies: tallies, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/elections/{electionID}/results", h.handleResults)
}

func (h *Handler) handleResults(w http.ResponseWriter, r *http.Request) {
	electionID, err := uuid.Parse(chi.URLParam(r, "electionID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid election id"))
		return
	}

	result, err := h.tallies.Recompute(r.Context(), electionID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}
