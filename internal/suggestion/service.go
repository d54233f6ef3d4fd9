package suggestion

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"geoatlas/internal/history"
	"geoatlas/internal/identity"
	"geoatlas/internal/platform/metrics"
	"geoatlas/internal/record"
	"geoatlas/internal/roles"
	dErrors "geoatlas/pkg/domain-errors"
	"geoatlas/pkg/platform/sentinel"
)

// ResolveAction is the admin decision on a pending suggestion.
type ResolveAction string

const (
	ActionValidate ResolveAction = "validate"
	ActionReject   ResolveAction = "reject"
)

// Service manages the suggestion lifecycle. Accepting a suggestion applies the
// field write to the target record through the record store, with the value
// re-validated against the field's declared type at that boundary.
type Service struct {
	store   Store
	records record.Store
	history *history.Writer
	roles   *roles.Table
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(store Store, records record.Store, hist *history.Writer, table *roles.Table,
	logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		store:   store,
		records: records,
		history: hist,
		roles:   table,
		logger:  logger,
		metrics: m,
	}
}

// Propose files a suggestion. A proposal equal to the current value is a
// conflict: there is nothing to review.
func (s *Service) Propose(ctx context.Context, p identity.Principal, path string,
	initialValue, value any, message string) (Suggestion, error) {
	if _, _, err := ParsePath(path); err != nil {
		return Suggestion{}, dErrors.New(dErrors.CodeBadRequest, err.Error())
	}
	if record.DeepEqual(initialValue, value) {
		return Suggestion{}, dErrors.New(dErrors.CodeConflict, "suggested value is identical to the current value")
	}

	now := time.Now()
	sug := Suggestion{
		ID:           uuid.NewString(),
		Principal:    p,
		Path:         path,
		Entity:       p.Entity,
		InitialValue: initialValue,
		Value:        value,
		Message:      message,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Save(ctx, sug); err != nil {
		return Suggestion{}, s.storageError(ctx, "save suggestion", err)
	}
	s.metrics.SuggestionsProposed.Inc()
	return sug, nil
}

// ListPending returns the review queue scoped to the caller's entity; the
// super admin sees every entity.
func (s *Service) ListPending(ctx context.Context, p identity.Principal) ([]Suggestion, error) {
	entity := p.Entity
	if p.Role() == roles.SuperAdminRole {
		entity = ""
	}
	out, err := s.store.ListPending(ctx, entity)
	if err != nil {
		return nil, s.storageError(ctx, "list suggestions", err)
	}
	return out, nil
}

// Resolve moves a pending suggestion to a terminal state. Validation applies
// the proposed value to the target record and records the change in history;
// rejection just archives the suggestion.
func (s *Service) Resolve(ctx context.Context, p identity.Principal, id string, action ResolveAction) (Suggestion, error) {
	sug, err := s.store.FindByID(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return Suggestion{}, dErrors.New(dErrors.CodeNotFound, "suggestion not found")
	}
	if err != nil {
		return Suggestion{}, s.storageError(ctx, "find suggestion", err)
	}
	if sug.Status != StatusPending {
		return Suggestion{}, dErrors.New(dErrors.CodeConflict, "suggestion is already resolved")
	}
	if !s.roles.CanAccess(p, sug.Entity, roles.EntityAdminLevel) {
		s.metrics.AccessDenied.Inc()
		return Suggestion{}, dErrors.New(dErrors.CodeForbidden, "resolving suggestions requires entity administration")
	}

	switch action {
	case ActionValidate:
		if err := s.apply(ctx, p, sug); err != nil {
			return Suggestion{}, err
		}
		sug.Status = StatusAccepted
	case ActionReject:
		sug.Status = StatusRejected
	default:
		return Suggestion{}, dErrors.New(dErrors.CodeBadRequest, "unknown resolve action")
	}

	sug.UpdatedAt = time.Now()
	if err := s.store.Save(ctx, sug); err != nil {
		return Suggestion{}, s.storageError(ctx, "save suggestion", err)
	}
	s.metrics.SuggestionsResolved.WithLabelValues(string(sug.Status)).Inc()
	return sug, nil
}

// apply writes the accepted value onto the target record field. The value must
// match the field's declared type tag; the proposal UI is permissive, this
// boundary is not.
func (s *Service) apply(ctx context.Context, p identity.Principal, sug Suggestion) error {
	recordID, index, err := ParsePath(sug.Path)
	if err != nil {
		return dErrors.New(dErrors.CodeBadRequest, err.Error())
	}
	rec, err := s.records.FindByID(ctx, recordID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "target record no longer exists")
	}
	if err != nil {
		return s.storageError(ctx, "find target record", err)
	}
	// The pending-queue gate checked the proposer's entity; the target record
	// may live somewhere else. Gate the write on the record's own entity.
	if !s.roles.CanAccess(p, rec.Metadata.Entity, roles.EntityAdminLevel) {
		s.metrics.AccessDenied.Inc()
		return dErrors.New(dErrors.CodeForbidden, "the target record belongs to another entity")
	}
	if index < 0 || index >= len(rec.Values) {
		return dErrors.New(dErrors.CodeNotFound, "target field no longer exists")
	}

	field := rec.Values[index]
	if _, err := record.ParseValue(field.Type, sug.Value); err != nil {
		return err
	}
	rec.Values[index].Value = sug.Value
	rec.Metadata.UpdatedAt = time.Now()
	rec.Metadata.UpdatedBy = p.ID

	modified, err := s.records.Replace(ctx, rec)
	if err != nil {
		return s.storageError(ctx, "apply suggestion", err)
	}
	if modified > 0 {
		s.history.RecordFieldChange(ctx, history.ActionUpdate, rec.Metadata.Label, rec.Metadata.Entity, p,
			sug.Path, sug.InitialValue, sug.Value)
	}
	return nil
}

func (s *Service) storageError(ctx context.Context, op string, err error) error {
	s.logger.ErrorContext(ctx, "storage failure",
		"op", op,
		"error", err.Error(),
	)
	return dErrors.Wrap(dErrors.CodeStorage, "storage operation failed", err)
}
