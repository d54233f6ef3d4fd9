package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"geoatlas/internal/history"
	"geoatlas/internal/platform/middleware"
	"geoatlas/internal/roles"
	"geoatlas/internal/transport/http/shared"
	dErrors "geoatlas/pkg/domain-errors"
)

// Service defines the read side of the audit log.
type Service interface {
	List(ctx context.Context, entity string) ([]history.Entry, error)
}

// Handler serves the admin changelog screen. Reading history is entity-admin
// territory: regular users never see the audit trail.
type Handler struct {
	history Service
	roles   *roles.Table
	logger  *slog.Logger
}

func New(hist Service, table *roles.Table, logger *slog.Logger) *Handler {
	return &Handler{history: hist, roles: table, logger: logger}
}

// Register registers the history routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/history", h.handleList)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())
	entity := p.Entity
	if p.Role() == roles.SuperAdminRole {
		entity = r.URL.Query().Get("entity")
	}
	if !h.roles.CanAccess(p, entity, roles.EntityAdminLevel) {
		shared.WriteError(w, dErrors.New(dErrors.CodeForbidden, "reading history requires entity administration"))
		return
	}
	entries, err := h.history.List(r.Context(), entity)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, entries)
}
