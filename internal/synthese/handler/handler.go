package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"geoatlas/internal/identity"
	"geoatlas/internal/platform/middleware"
	"geoatlas/internal/synthese"
	"geoatlas/internal/transport/http/shared"
	dErrors "geoatlas/pkg/domain-errors"
)

// Service defines the interface for synthese operations.
type Service interface {
	Create(ctx context.Context, p identity.Principal, reference, label string, recordIDs []string) (synthese.Synthese, error)
	List(ctx context.Context, p identity.Principal) ([]synthese.Synthese, error)
	Resolve(ctx context.Context, p identity.Principal, id string) (synthese.Synthese, []synthese.ResolvedChild, error)
}

// Handler handles synthese endpoints.
type Handler struct {
	syntheses Service
	logger    *slog.Logger
}

func New(syntheses Service, logger *slog.Logger) *Handler {
	return &Handler{syntheses: syntheses, logger: logger}
}

// Register registers the synthese routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/syntheses", h.handleCreate)
	r.Get("/syntheses", h.handleList)
	r.Get("/syntheses/{id}", h.handleGet)
}

type createRequest struct {
	Reference string   `json:"reference"`
	Label     string   `json:"label"`
	RecordIDs []string `json:"recordIds"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	syn, err := h.syntheses.Create(r.Context(), p, req.Reference, req.Label, req.RecordIDs)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, syn)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())
	syns, err := h.syntheses.List(r.Context(), p)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, syns)
}

type resolvedResponse struct {
	Synthese synthese.Synthese        `json:"synthese"`
	Children []synthese.ResolvedChild `json:"children"`
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())
	syn, children, err := h.syntheses.Resolve(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, resolvedResponse{Synthese: syn, Children: children})
}
