// Package handler exposes voter registration and verification review over
// HTTP. Registration is public; review and listing are admin-only.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"quorum/internal/platform/middleware"
	"quorum/internal/registry"
	"quorum/internal/transport/http/shared"
	dErrors "quorum/pkg/domain-errors"
)

// Service defines the registry operations the handler needs.
type Service interface {
	Register(ctx context.Context, identity registry.Identity, evidence registry.Evidence) (*registry.VoterRecord, error)
	ReviewVerification(ctx context.Context, voterID uuid.UUID, decision registry.Decision, reason string) (*registry.VoterRecord, error)
	Get(ctx context.Context, voterID uuid.UUID) (*registry.VoterRecord, error)
	List(ctx context.Context, state registry.VerificationState) ([]*registry.VoterRecord, error)
}

type Handler struct {
	registry Service
	admin    middleware.TokenValidator
	logger   *slog.Logger
}

func New(registry Service, admin middleware.TokenValidator, logger *slog.Logger) *Handler {
	return &Handler{registry: registry, admin: admin, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/voters", h.handleRegister)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin(h.admin, h.logger))
		r.Get("/voters", h.handleList)
		r.Get("/voters/{voterID}", h.handleGet)
		r.Post("/voters/{voterID}/review", h.handleReview)
	})
}

type registerRequest struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	ExternalKey string `json:"external_key"`
	DocumentRef string `json:"document_ref"`
	PhotoRef    string `json:"photo_ref"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	record, err := h.registry.Register(r.Context(),
		registry.Identity{
			FullName:    req.FullName,
			Email:       req.Email,
			Phone:       req.Phone,
			ExternalKey: req.ExternalKey,
		},
		registry.Evidence{
			DocumentRef: req.DocumentRef,
			PhotoRef:    req.PhotoRef,
		},
	)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, record)
}

type reviewRequest struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason,omitempty"`
}

func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request) {
	voterID, err := uuid.Parse(chi.URLParam(r, "voterID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid voter id"))
		return
	}

	var req reviewRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	record, err := h.registry.ReviewVerification(r.Context(), voterID, registry.Decision(req.Decision), req.Reason)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	voterID, err := uuid.Parse(chi.URLParam(r, "voterID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid voter id"))
		return
	}

	record, err := h.registry.Get(r.Context(), voterID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	state := registry.VerificationState(r.URL.Query().Get("state"))
	records, err := h.registry.List(r.Context(), state)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"voters": records})
}
