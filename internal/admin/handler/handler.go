// Package handler exposes operator login. Everything else admin-scoped
// lives with its owning module behind RequireAdmin.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"quorum/internal/transport/http/shared"
)

// Service defines the login operation the handler needs.
type Service interface {
	Login(operator, password string) (string, error)
}

type Handler struct {
	admin  Service
	logger *slog.Logger
}

func New(admin Service, logger *slog.Logger) *Handler {
	return &Handler{admin: admin, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/admin/login", h.handleLogin)
}

type loginRequest struct {
	Operator string `json:"operator"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	token, err := h.admin.Login(req.Operator, req.Password)
	if err != nil {
		h.logger.WarnContext(r.Context(), "admin login rejected", "operator", req.Operator)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, loginResponse{Token: token})
}
