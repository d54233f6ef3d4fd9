// Package handler exposes the record operations over HTTP. Thin by design:
// decode, delegate, encode.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"geoatlas/internal/identity"
	"geoatlas/internal/platform/middleware"
	"geoatlas/internal/record"
	"geoatlas/internal/transport/http/shared"
	dErrors "geoatlas/pkg/domain-errors"
)

// Service defines the interface for record operations.
type Service interface {
	ListAccessible(ctx context.Context, p identity.Principal, filter record.Filter) ([]record.Record, error)
	ListSummaries(ctx context.Context, p identity.Principal) ([]record.Summary, error)
	Get(ctx context.Context, p identity.Principal, id string) (record.Record, error)
	Create(ctx context.Context, p identity.Principal, meta record.Metadata, values []record.Field) (record.Record, error)
	Update(ctx context.Context, p identity.Principal, id string, meta record.Metadata, values []record.Field) (record.Record, error)
	Delete(ctx context.Context, p identity.Principal, id string) error
	QuickEdit(ctx context.Context, p identity.Principal, recs []record.Record) (int64, error)
}

// Handler handles record endpoints.
type Handler struct {
	records Service
	logger  *slog.Logger
}

func New(records Service, logger *slog.Logger) *Handler {
	return &Handler{records: records, logger: logger}
}

// Register registers the record routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/records", h.handleList)
	r.Get("/records/summaries", h.handleSummaries)
	r.Get("/records/{id}", h.handleGet)
	r.Post("/records", h.handleCreate)
	r.Put("/records/{id}", h.handleUpdate)
	r.Delete("/records/{id}", h.handleDelete)
	r.Post("/records/quick-edit", h.handleQuickEdit)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())
	filter := record.Filter{
		Entity:        r.URL.Query().Get("entity"),
		LabelContains: r.URL.Query().Get("label"),
	}
	recs, err := h.records.ListAccessible(r.Context(), p, filter)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, recs)
}

func (h *Handler) handleSummaries(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())
	summaries, err := h.records.ListSummaries(r.Context(), p)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, summaries)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())
	rec, err := h.records.Get(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, rec)
}

type writeRequest struct {
	Metadata record.Metadata `json:"metadata"`
	Values   []record.Field  `json:"values"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())
	var req writeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	rec, err := h.records.Create(r.Context(), p, req.Metadata, req.Values)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, rec)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())
	var req writeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	rec, err := h.records.Update(r.Context(), p, chi.URLParam(r, "id"), req.Metadata, req.Values)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())
	if err := h.records.Delete(r.Context(), p, chi.URLParam(r, "id")); err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) handleQuickEdit(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())
	var recs []record.Record
	if err := json.NewDecoder(r.Body).Decode(&recs); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	applied, err := h.records.QuickEdit(r.Context(), p, recs)
	if err != nil {
		// Partial application still matters to the caller; the envelope
		// carries the applied count alongside the failure message.
		h.logger.WarnContext(r.Context(), "quick edit failed",
			"request_id", middleware.GetRequestID(r.Context()),
			"applied", applied,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]int64{"applied": applied})
}
