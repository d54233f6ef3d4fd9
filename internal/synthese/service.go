package synthese

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"geoatlas/internal/identity"
	"geoatlas/internal/record"
	"geoatlas/internal/roles"
	dErrors "geoatlas/pkg/domain-errors"
	"geoatlas/pkg/platform/sentinel"
)

// Service composes and reads syntheses.
type Service struct {
	store   Store
	records record.Store
	roles   *roles.Table
	logger  *slog.Logger
}

func New(store Store, records record.Store, table *roles.Table, logger *slog.Logger) *Service {
	return &Service{store: store, records: records, roles: table, logger: logger}
}

// Create composes a report over the given sub objects. Each child must exist
// and be readable by the author at composition time.
func (s *Service) Create(ctx context.Context, p identity.Principal, reference, label string, recordIDs []string) (Synthese, error) {
	if label == "" {
		return Synthese{}, dErrors.New(dErrors.CodeValidation, "synthese label must not be empty")
	}
	if p.Entity == "" {
		return Synthese{}, dErrors.New(dErrors.CodeForbidden, "composing a synthese requires an entity")
	}

	children := make([]Child, 0, len(recordIDs))
	for _, id := range recordIDs {
		rec, err := s.records.FindByID(ctx, id)
		if errors.Is(err, sentinel.ErrNotFound) {
			return Synthese{}, dErrors.New(dErrors.CodeNotFound, "sub object not found: "+id)
		}
		if err != nil {
			return Synthese{}, s.storageError(ctx, "find sub object", err)
		}
		if !s.canRead(p, rec) {
			return Synthese{}, dErrors.New(dErrors.CodeForbidden, "access to a referenced sub object is not allowed")
		}
		children = append(children, Child{
			RecordID: id,
			Path:     id + ".values",
			Metadata: rec.Metadata,
		})
	}

	now := time.Now()
	syn := Synthese{
		ID: primitive.NewObjectID().Hex(),
		Metadata: Metadata{
			Reference: reference,
			Label:     label,
			Entity:    p.Entity,
			Author:    p.ID,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Children: children,
	}
	if err := s.store.Save(ctx, syn); err != nil {
		return Synthese{}, s.storageError(ctx, "save synthese", err)
	}
	return syn, nil
}

// List returns the syntheses visible to the principal: own entity, or all of
// them for the super admin.
func (s *Service) List(ctx context.Context, p identity.Principal) ([]Synthese, error) {
	entity := p.Entity
	if p.Role() == roles.SuperAdminRole {
		entity = ""
	}
	out, err := s.store.ListByEntity(ctx, entity)
	if err != nil {
		return nil, s.storageError(ctx, "list syntheses", err)
	}
	return out, nil
}

// Resolve reads a synthese and fetches current child values in parallel.
// Children whose record is gone come back marked missing; children the caller
// may no longer read come back without values.
func (s *Service) Resolve(ctx context.Context, p identity.Principal, id string) (Synthese, []ResolvedChild, error) {
	syn, err := s.store.FindByID(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return Synthese{}, nil, dErrors.New(dErrors.CodeNotFound, "synthese not found")
	}
	if err != nil {
		return Synthese{}, nil, s.storageError(ctx, "find synthese", err)
	}
	if !s.roles.CanAccess(p, syn.Metadata.Entity, 0) {
		return Synthese{}, nil, dErrors.New(dErrors.CodeForbidden, "access to this synthese is not allowed")
	}

	resolved := make([]ResolvedChild, len(syn.Children))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, child := range syn.Children {
		g.Go(func() error {
			rc := ResolvedChild{Child: child}
			rec, err := s.records.FindByID(gctx, child.RecordID)
			switch {
			case errors.Is(err, sentinel.ErrNotFound):
				rc.Missing = true
			case err != nil:
				return err
			case s.canRead(p, rec):
				rc.Values = rec.Values
			}
			resolved[i] = rc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Synthese{}, nil, s.storageError(ctx, "resolve synthese children", err)
	}
	return syn, resolved, nil
}

func (s *Service) canRead(p identity.Principal, rec record.Record) bool {
	required := roles.LevelUndefined
	if rec.Metadata.Authorization != "" {
		required = s.roles.LevelOf(rec.Metadata.Authorization)
	}
	return s.roles.CanAccess(p, rec.Metadata.Entity, required)
}

func (s *Service) storageError(ctx context.Context, op string, err error) error {
	s.logger.ErrorContext(ctx, "storage failure",
		"op", op,
		"error", err.Error(),
	)
	return dErrors.Wrap(dErrors.CodeStorage, "storage operation failed", err)
}
