// Package handler exposes the audit trail to operators.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"quorum/internal/audit"
	"quorum/internal/platform/middleware"
	"quorum/internal/transport/http/shared"
	dErrors "quorum/pkg/domain-errors"
)

// Reader lists persisted audit events.
type Reader interface {
	ListByElection(ctx context.Context, electionID uuid.UUID) ([]audit.Event, error)
	ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]audit.Event, error)
}

type Handler struct {
	store  Reader
	admin  middleware.TokenValidator
	logger *slog.Logger
}

func New(store Reader, admin middleware.TokenValidator, logger *slog.Logger) *Handler {
	return &Handler{store: store, admin: admin, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin(h.admin, h.logger))
		r.Get("/audit", h.handleList)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		events []audit.Event
		err    error
	)
	switch {
	case q.Get("election_id") != "":
		var electionID uuid.UUID
		electionID, err = uuid.Parse(q.Get("election_id"))
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid election_id"))
			return
		}
		events, err = h.store.ListByElection(r.Context(), electionID)
	case q.Get("subject_id") != "":
		var subjectID uuid.UUID
		subjectID, err = uuid.Parse(q.Get("subject_id"))
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid subject_id"))
			return
		}
		events, err = h.store.ListBySubject(r.Context(), subjectID)
	default:
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "election_id or subject_id is required"))
		return
	}
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}
