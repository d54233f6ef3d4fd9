package habilitation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"geoatlas/internal/identity"
	"geoatlas/internal/platform/metrics"
	"geoatlas/internal/roles"
	dErrors "geoatlas/pkg/domain-errors"
	"geoatlas/pkg/platform/sentinel"
)

// ResolveAction is the admin decision on a request.
type ResolveAction string

const (
	ActionValidate ResolveAction = "validate"
	ActionReject   ResolveAction = "reject"
)

// Service manages habilitation requests and grants.
type Service struct {
	store   Store
	roles   *roles.Table
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(store Store, table *roles.Table, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{store: store, roles: table, logger: logger, metrics: m}
}

// Request files (or refreshes) the principal's pending role request. A
// duplicate pending request is resolved by the upsert, not reported as a
// failure.
func (s *Service) Request(ctx context.Context, p identity.Principal, desiredRole string) (Request, error) {
	if !s.roles.Knows(desiredRole) {
		return Request{}, dErrors.New(dErrors.CodeBadRequest, "unknown role: "+desiredRole)
	}
	now := time.Now()
	req := Request{
		ID:        uuid.NewString(),
		Principal: p,
		Role:      desiredRole,
		Status:    RequestPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	saved, err := s.store.UpsertPending(ctx, req)
	if err != nil {
		return Request{}, s.storageError(ctx, "upsert habilitation request", err)
	}
	return saved, nil
}

// ListPending returns the request queue for review.
func (s *Service) ListPending(ctx context.Context, p identity.Principal) ([]Request, error) {
	if !s.roles.CanAccess(p, "", roles.EntityAdminLevel) {
		s.metrics.AccessDenied.Inc()
		return nil, dErrors.New(dErrors.CodeForbidden, "listing habilitation requests requires entity administration")
	}
	out, err := s.store.ListPending(ctx)
	if err != nil {
		return nil, s.storageError(ctx, "list habilitation requests", err)
	}
	// Entity admins only review their own entity's requests.
	if p.Role() != roles.SuperAdminRole {
		scoped := out[:0]
		for _, req := range out {
			if req.Principal.Entity == p.Entity {
				scoped = append(scoped, req)
			}
		}
		out = scoped
	}
	return out, nil
}

// Resolve validates or rejects a pending request. Validation writes the grant;
// the requester carries the role from their next authenticated request on.
func (s *Service) Resolve(ctx context.Context, p identity.Principal, id string, action ResolveAction) (Request, error) {
	req, err := s.store.FindRequest(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return Request{}, dErrors.New(dErrors.CodeNotFound, "habilitation request not found")
	}
	if err != nil {
		return Request{}, s.storageError(ctx, "find habilitation request", err)
	}
	if req.Status != RequestPending {
		return Request{}, dErrors.New(dErrors.CodeConflict, "habilitation request is already resolved")
	}
	if !s.roles.CanAccess(p, req.Principal.Entity, roles.EntityAdminLevel) {
		s.metrics.AccessDenied.Inc()
		return Request{}, dErrors.New(dErrors.CodeForbidden, "resolving this request is not allowed")
	}
	// Only the super admin may hand out the super admin role.
	if req.Role == roles.SuperAdminRole && p.Role() != roles.SuperAdminRole {
		s.metrics.AccessDenied.Inc()
		return Request{}, dErrors.New(dErrors.CodeForbidden, "granting this role is not allowed")
	}

	switch action {
	case ActionValidate:
		grant := identity.Habilitation{
			PrincipalID: req.Principal.ID,
			Role:        req.Role,
			ValidatedBy: p.ID,
			ValidatedAt: time.Now(),
		}
		if err := s.store.SaveGrant(ctx, grant); err != nil {
			return Request{}, s.storageError(ctx, "save habilitation grant", err)
		}
		req.Status = RequestValidated
	case ActionReject:
		req.Status = RequestRejected
	default:
		return Request{}, dErrors.New(dErrors.CodeBadRequest, "unknown resolve action")
	}

	req.ResolvedBy = p.ID
	req.UpdatedAt = time.Now()
	if err := s.store.SaveRequest(ctx, req); err != nil {
		return Request{}, s.storageError(ctx, "save habilitation request", err)
	}
	s.logger.InfoContext(ctx, "habilitation request resolved",
		"request_id", req.ID,
		"principal", req.Principal.ID,
		"role", req.Role,
		"status", string(req.Status),
	)
	return req, nil
}

// GrantFor returns the principal's granted habilitation, or nil when none.
// Used by the auth middleware when resolving the acting principal.
func (s *Service) GrantFor(ctx context.Context, principalID string) (*identity.Habilitation, error) {
	grant, err := s.store.FindGrant(ctx, principalID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, s.storageError(ctx, "find habilitation grant", err)
	}
	return &grant, nil
}

func (s *Service) storageError(ctx context.Context, op string, err error) error {
	s.logger.ErrorContext(ctx, "storage failure",
		"op", op,
		"error", err.Error(),
	)
	return dErrors.Wrap(dErrors.CodeStorage, "storage operation failed", err)
}
