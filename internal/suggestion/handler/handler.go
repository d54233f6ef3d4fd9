package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"geoatlas/internal/identity"
	"geoatlas/internal/platform/middleware"
	"geoatlas/internal/suggestion"
	"geoatlas/internal/transport/http/shared"
	dErrors "geoatlas/pkg/domain-errors"
)

// Service defines the interface for suggestion operations.
type Service interface {
	Propose(ctx context.Context, p identity.Principal, path string, initialValue, value any, message string) (suggestion.Suggestion, error)
	ListPending(ctx context.Context, p identity.Principal) ([]suggestion.Suggestion, error)
	Resolve(ctx context.Context, p identity.Principal, id string, action suggestion.ResolveAction) (suggestion.Suggestion, error)
}

// Handler handles suggestion endpoints.
type Handler struct {
	suggestions Service
	logger      *slog.Logger
}

func New(suggestions Service, logger *slog.Logger) *Handler {
	return &Handler{suggestions: suggestions, logger: logger}
}

// Register registers the suggestion routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/suggestions", h.handlePropose)
	r.Get("/suggestions", h.handleList)
	r.Post("/suggestions/{id}/resolve", h.handleResolve)
}

type proposeRequest struct {
	Path         string `json:"path"`
	InitialValue any    `json:"initialValue"`
	Value        any    `json:"value"`
	Message      string `json:"message"`
}

func (h *Handler) handlePropose(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())
	var req proposeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	sug, err := h.suggestions.Propose(r.Context(), p, req.Path, req.InitialValue, req.Value, req.Message)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, sug)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())
	sugs, err := h.suggestions.ListPending(r.Context(), p)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, sugs)
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
	sug, err := h.suggestions.Resolve(r.Context(), p, chi.URLParam(r, "id"), suggestion.ResolveAction(req.Action))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, sug)
}
