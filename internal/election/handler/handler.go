// Package handler exposes election lifecycle administration and the public
// election listing over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"quorum/internal/election"
	"quorum/internal/platform/middleware"
	"quorum/internal/transport/http/shared"
	dErrors "quorum/pkg/domain-errors"
)

// Service defines the election operations the handler needs.
type Service interface {
	Create(ctx context.Context, title, description string, startAt, endAt *time.Time, candidates []election.CandidateInput) (*election.Election, error)
	AddCandidate(ctx context.Context, electionID uuid.UUID, in election.CandidateInput) (*election.Election, error)
	RemoveCandidate(ctx context.Context, electionID, candidateID uuid.UUID) (*election.Election, error)
	Activate(ctx context.Context, electionID uuid.UUID) (*election.Election, error)
	Complete(ctx context.Context, electionID uuid.UUID) (*election.Election, error)
	Get(ctx context.Context, electionID uuid.UUID) (*election.Election, error)
	List(ctx context.Context) ([]*election.Election, error)
}

type Handler struct {
	elections Service
	admin     middleware.TokenValidator
	logger    *slog.Logger
}

func New(elections Service, admin middleware.TokenValidator, logger *slog.Logger) *Handler {
	return &Handler{elections: elections, admin: admin, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/elections", h.handleList)
	r.Get("/elections/{electionID}", h.handleGet)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin(h.admin, h.logger))
		r.Post("/elections", h.handleCreate)
		r.Post("/elections/{electionID}/candidates", h.handleAddCandidate)
		r.Delete("/elections/{electionID}/candidates/{candidateID}", h.handleRemoveCandidate)
		r.Post("/elections/{electionID}/activate", h.handleActivate)
		r.Post("/elections/{electionID}/complete", h.handleComplete)
	})
}

type candidateRequest struct {
	Name        string `json:"name"`
	Affiliation string `json:"affiliation,omitempty"`
}

type createRequest struct {
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	StartAt     *time.Time         `json:"start_at,omitempty"`
	EndAt       *time.Time         `json:"end_at,omitempty"`
	Candidates  []candidateRequest `json:"candidates,omitempty"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	candidates := make([]election.CandidateInput, 0, len(req.Candidates))
	for _, c := range req.Candidates {
		candidates = append(candidates, election.CandidateInput{Name: c.Name, Affiliation: c.Affiliation})
	}

	e, err := h.elections.Create(r.Context(), req.Title, req.Description, req.StartAt, req.EndAt, candidates)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, e)
}

func (h *Handler) handleAddCandidate(w http.ResponseWriter, r *http.Request) {
	electionID, err := uuid.Parse(chi.URLParam(r, "electionID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid election id"))
		return
	}

	var req candidateRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	e, err := h.elections.AddCandidate(r.Context(), electionID, election.CandidateInput{
		Name:        req.Name,
		Affiliation: req.Affiliation,
	})
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) handleRemoveCandidate(w http.ResponseWriter, r *http.Request) {
	electionID, err := uuid.Parse(chi.URLParam(r, "electionID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid election id"))
		return
	}
	candidateID, err := uuid.Parse(chi.URLParam(r, "candidateID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid candidate id"))
		return
	}

	e, err := h.elections.RemoveCandidate(r.Context(), electionID, candidateID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) handleActivate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.elections.Activate)
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.elections.Complete)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(context.Context, uuid.UUID) (*election.Election, error)) {
	electionID, err := uuid.Parse(chi.URLParam(r, "electionID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid election id"))
		return
	}

	e, err := op(r.Context(), electionID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	electionID, err := uuid.Parse(chi.URLParam(r, "electionID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid election id"))
		return
	}

	e, err := h.elections.Get(r.Context(), electionID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	elections, err := h.elections.List(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"elections": elections})
}
