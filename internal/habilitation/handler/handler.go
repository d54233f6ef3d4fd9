package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"geoatlas/internal/habilitation"
	"geoatlas/internal/identity"
	"geoatlas/internal/platform/middleware"
	"geoatlas/internal/roles"
	"geoatlas/internal/transport/http/shared"
	dErrors "geoatlas/pkg/domain-errors"
)

// Service defines the interface for habilitation operations.
type Service interface {
	Request(ctx context.Context, p identity.Principal, desiredRole string) (habilitation.Request, error)
	ListPending(ctx context.Context, p identity.Principal) ([]habilitation.Request, error)
	Resolve(ctx context.Context, p identity.Principal, id string, action habilitation.ResolveAction) (habilitation.Request, error)
}

// Handler handles habilitation endpoints, plus the role table the UI renders
// its pickers from.
type Handler struct {
	habilitations Service
	roles         *roles.Table
	logger        *slog.Logger
}

func New(habilitations Service, table *roles.Table, logger *slog.Logger) *Handler {
	return &Handler{habilitations: habilitations, roles: table, logger: logger}
}

// Register registers the habilitation routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/habilitations/requests", h.handleRequest)
	r.Get("/habilitations/requests", h.handleList)
	r.Post("/habilitations/requests/{id}/resolve", h.handleResolve)
	r.Get("/roles", h.handleRoles)
}

type roleRequest struct {
	Role string `json:"role"`
}

func (h *Handler) handleRequest(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())
	var req roleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	saved, err := h.habilitations.Request(r.Context(), p, req.Role)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, saved)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())
	reqs, err := h.habilitations.ListPending(r.Context(), p)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, reqs)
}

type resolveRequest struct {
	Action string `json:"action"`
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	resolved, err := h.habilitations.Resolve(r.Context(), p, chi.URLParam(r, "id"), habilitation.ResolveAction(req.Action))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, resolved)
}

func (h *Handler) handleRoles(w http.ResponseWriter, r *http.Request) {
	type role struct {
		Label string `json:"label"`
		Value string `json:"value"`
		Level int    `json:"level"`
	}
	out := make([]role, 0)
	for _, rr := range h.roles.Roles() {
		out = append(out, role{Label: rr.Label, Value: rr.Value, Level: int(rr.Level)})
	}
	shared.WriteJSON(w, http.StatusOK, out)
}
