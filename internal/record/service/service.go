// Package service is the access-scoped query layer over records: every read
// is post-filtered and every write pre-checked by the role evaluator, and
// committed mutations land in the audit history.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"geoatlas/internal/history"
	"geoatlas/internal/identity"
	"geoatlas/internal/platform/cache"
	"geoatlas/internal/platform/metrics"
	"geoatlas/internal/record"
	"geoatlas/internal/roles"
	dErrors "geoatlas/pkg/domain-errors"
	"geoatlas/pkg/platform/sentinel"
)

// Service orchestrates record reads and writes.
type Service struct {
	store   record.Store
	history *history.Writer
	roles   *roles.Table
	logger  *slog.Logger
	metrics *metrics.Metrics
	cache   *cache.Cache
}

func New(store record.Store, hist *history.Writer, table *roles.Table,
	logger *slog.Logger, m *metrics.Metrics, c *cache.Cache) *Service {
	return &Service{
		store:   store,
		history: hist,
		roles:   table,
		logger:  logger,
		metrics: m,
		cache:   c,
	}
}

// requiredLevel derives the level a reader needs for a record from its
// authorization role. An absent authorization is undefined and fails closed.
func (s *Service) requiredLevel(rec record.Record) roles.Level {
	if rec.Metadata.Authorization == "" {
		return roles.LevelUndefined
	}
	return s.roles.LevelOf(rec.Metadata.Authorization)
}

// ListAccessible returns every record the principal may read, in storage
// order. The access check is a stable post-filter: survivors keep their
// relative order, nothing is re-sorted.
func (s *Service) ListAccessible(ctx context.Context, p identity.Principal, filter record.Filter) ([]record.Record, error) {
	recs, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, s.storageError(ctx, "list records", err)
	}
	out := make([]record.Record, 0, len(recs))
	for _, rec := range recs {
		if s.roles.CanAccess(p, rec.Metadata.Entity, s.requiredLevel(rec)) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// ListSummaries returns map-marker summaries of the accessible records,
// served from the redis cache when warm. The scope key is entity+role since
// those two fully determine the visible set.
func (s *Service) ListSummaries(ctx context.Context, p identity.Principal) ([]record.Summary, error) {
	scope := p.Entity + "|" + p.Role()
	if cached, ok := s.cache.Get(ctx, scope); ok {
		return cached, nil
	}
	recs, err := s.ListAccessible(ctx, p, record.Filter{})
	if err != nil {
		return nil, err
	}
	summaries := make([]record.Summary, 0, len(recs))
	for _, rec := range recs {
		summaries = append(summaries, record.Summarize(rec))
	}
	s.cache.Set(ctx, scope, summaries)
	return summaries, nil
}

// Get returns a single record, access-checked like a bulk read.
func (s *Service) Get(ctx context.Context, p identity.Principal, id string) (record.Record, error) {
	rec, err := s.store.FindByID(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return record.Record{}, dErrors.New(dErrors.CodeNotFound, "record not found")
	}
	if err != nil {
		return record.Record{}, s.storageError(ctx, "find record", err)
	}
	if !s.roles.CanAccess(p, rec.Metadata.Entity, s.requiredLevel(rec)) {
		s.metrics.AccessDenied.Inc()
		return record.Record{}, dErrors.New(dErrors.CodeForbidden, "access to this record is not allowed")
	}
	return rec, nil
}

// Create inserts a new record. The entity is stamped from the acting
// principal, never from client input, so a caller cannot write into another
// entity's scope.
func (s *Service) Create(ctx context.Context, p identity.Principal, meta record.Metadata, values []record.Field) (record.Record, error) {
	if !s.roles.CanAccess(p, p.Entity, roles.EntityAdminLevel) {
		s.metrics.AccessDenied.Inc()
		return record.Record{}, dErrors.New(dErrors.CodeForbidden, "creating records requires entity administration")
	}

	now := time.Now()
	entity := p.Entity
	if entity == "" && p.Role() == roles.SuperAdminRole {
		// A super admin has no entity of their own; the payload says where
		// the record lives. Everyone else gets their entity stamped.
		entity = meta.Entity
	}
	meta.Entity = entity
	meta.CreatedAt = now
	meta.CreatedBy = p.ID
	meta.UpdatedAt = now
	meta.UpdatedBy = p.ID

	rec := record.Record{
		ID:       primitive.NewObjectID().Hex(),
		Metadata: meta,
		Values:   values,
	}
	if rec.Values == nil {
		rec.Values = []record.Field{}
	}
	if rec.Children == nil {
		rec.Children = map[string][]record.Record{}
	}
	if err := rec.Validate(); err != nil {
		return record.Record{}, err
	}

	if err := s.store.Insert(ctx, rec); err != nil {
		return record.Record{}, s.storageError(ctx, "insert record", err)
	}

	s.metrics.RecordsCreated.Inc()
	s.history.Record(ctx, history.ActionCreate, rec.Metadata.Label, rec.Metadata.Entity, p, rec.ID, 1)
	s.cache.Invalidate(ctx)
	return rec, nil
}

// Update replaces a record's metadata and values. The authorization check runs
// strictly before any storage write; an update identical to the stored
// snapshot is a no-op that produces neither a write nor a history entry.
func (s *Service) Update(ctx context.Context, p identity.Principal, id string, meta record.Metadata, values []record.Field) (record.Record, error) {
	prior, err := s.store.FindByID(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return record.Record{}, dErrors.New(dErrors.CodeNotFound, "record not found")
	}
	if err != nil {
		return record.Record{}, s.storageError(ctx, "find record", err)
	}

	if !s.canAdminister(p, prior) {
		s.metrics.AccessDenied.Inc()
		return record.Record{}, dErrors.New(dErrors.CodeForbidden, "updating this record is not allowed")
	}

	next := prior
	next.Metadata.Label = meta.Label
	next.Metadata.Description = meta.Description
	next.Metadata.Authorization = meta.Authorization
	next.Values = values
	if err := next.Validate(); err != nil {
		return record.Record{}, err
	}

	// Diff against the pre-stamp snapshot: the timestamp must not turn a
	// no-op payload into a change.
	diffs := record.Diff(prior, next, "")
	if len(diffs) == 0 {
		return prior, nil
	}

	next.Metadata.UpdatedAt = time.Now()
	next.Metadata.UpdatedBy = p.ID

	modified, err := s.store.Replace(ctx, next)
	if errors.Is(err, sentinel.ErrNotFound) {
		return record.Record{}, dErrors.New(dErrors.CodeNotFound, "record not found")
	}
	if err != nil {
		return record.Record{}, s.storageError(ctx, "replace record", err)
	}

	if modified > 0 {
		s.metrics.RecordsUpdated.Inc()
		if len(diffs) == 1 {
			s.history.RecordFieldChange(ctx, history.ActionUpdate, next.Metadata.Label, next.Metadata.Entity, p,
				id+diffs[0].Path, diffs[0].InitialValue, diffs[0].Value)
		} else {
			s.history.Record(ctx, history.ActionUpdate, next.Metadata.Label, next.Metadata.Entity, p,
				id, int64(len(diffs)))
		}
		s.cache.Invalidate(ctx)
	}
	return next, nil
}

// Delete removes a record. History is written only when the storage layer
// reports exactly one deleted document; the record's past history remains.
func (s *Service) Delete(ctx context.Context, p identity.Principal, id string) error {
	prior, err := s.store.FindByID(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "record not found")
	}
	if err != nil {
		return s.storageError(ctx, "find record", err)
	}

	if !s.canAdminister(p, prior) {
		s.metrics.AccessDenied.Inc()
		return dErrors.New(dErrors.CodeForbidden, "deleting this record is not allowed")
	}

	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return s.storageError(ctx, "delete record", err)
	}
	if deleted == 1 {
		s.metrics.RecordsDeleted.Inc()
		s.history.Record(ctx, history.ActionDelete, prior.Metadata.Label, prior.Metadata.Entity, p, id, deleted)
		s.cache.Invalidate(ctx)
	}
	return nil
}

// QuickEdit applies a batch of edited records in one storage round-trip. The
// batch is validated and authorized in full before any write; the write
// itself is not atomic across documents, so a storage failure reports how
// many documents were applied instead of pretending none were.
func (s *Service) QuickEdit(ctx context.Context, p identity.Principal, recs []record.Record) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	for i := range recs {
		stored, err := s.store.FindByID(ctx, recs[i].ID)
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			// New row from the quick-edit table: same gate and stamping as a
			// creation.
			if !s.roles.CanAccess(p, p.Entity, roles.EntityAdminLevel) {
				s.metrics.AccessDenied.Inc()
				return 0, dErrors.New(dErrors.CodeForbidden, "creating records requires entity administration")
			}
			recs[i].Metadata.Entity = p.Entity
			recs[i].Metadata.CreatedAt = time.Now()
			recs[i].Metadata.CreatedBy = p.ID
			if recs[i].ID == "" {
				recs[i].ID = primitive.NewObjectID().Hex()
			}
		case err != nil:
			return 0, s.storageError(ctx, "find record", err)
		default:
			if !s.canAdminister(p, stored) {
				s.metrics.AccessDenied.Inc()
				return 0, dErrors.New(dErrors.CodeForbidden, "quick edit touches a record outside your entity")
			}
			// Entity and creation metadata come from the stored copy, not
			// from the client payload.
			recs[i].Metadata.Entity = stored.Metadata.Entity
			recs[i].Metadata.CreatedAt = stored.Metadata.CreatedAt
			recs[i].Metadata.CreatedBy = stored.Metadata.CreatedBy
		}
		recs[i].Metadata.UpdatedAt = time.Now()
		recs[i].Metadata.UpdatedBy = p.ID
		if err := recs[i].Validate(); err != nil {
			return 0, err
		}
	}

	applied, err := s.store.BulkUpsert(ctx, recs)
	if err != nil {
		s.logger.ErrorContext(ctx, "quick edit partially applied",
			"applied", applied,
			"total", len(recs),
			"error", err.Error(),
		)
		return applied, dErrors.Wrap(dErrors.CodeStorage, "quick edit failed after partial application", err)
	}
	if applied > 0 {
		s.metrics.RecordsUpdated.Inc()
		s.history.Record(ctx, history.ActionUpdate, "quick edit", p.Entity, p, "bulk", applied)
		s.cache.Invalidate(ctx)
	}
	return applied, nil
}

// canAdminister is the single-record write gate: entity admin on the record's
// entity, or super admin.
func (s *Service) canAdminister(p identity.Principal, rec record.Record) bool {
	return s.roles.CanAccess(p, rec.Metadata.Entity, roles.EntityAdminLevel)
}

func (s *Service) storageError(ctx context.Context, op string, err error) error {
	s.logger.ErrorContext(ctx, "storage failure",
		"op", op,
		"error", err.Error(),
	)
	return dErrors.Wrap(dErrors.CodeStorage, "storage operation failed", err)
}
