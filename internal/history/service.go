package history

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"geoatlas/internal/identity"
	"geoatlas/internal/platform/metrics"
	"geoatlas/internal/record"
	dErrors "geoatlas/pkg/domain-errors"
)

// Writer appends audit entries after committed mutations. Appends are
// fire-and-forget relative to the triggering request: a failed append is
// logged and counted, never surfaced to the caller, and never retried here.
type Writer struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	archive chan<- Entry
}

// NewWriter builds a Writer. archive may be nil when no archive sink is
// configured.
func NewWriter(store Store, logger *slog.Logger, m *metrics.Metrics, archive chan<- Entry) *Writer {
	return &Writer{store: store, logger: logger, metrics: m, archive: archive}
}

// Record appends one entry for a committed mutation. affectedCount is the
// count reported by the storage mutation; zero means the write was a no-op
// and produces no history.
func (w *Writer) Record(ctx context.Context, action Action, subjectLabel, subjectEntity string,
	actor identity.Principal, affectedPath string, affectedCount int64) {
	w.record(ctx, action, subjectLabel, subjectEntity, actor, affectedCount, []record.Field{
		{Label: "path", Type: record.TypeString, Value: affectedPath},
		{Label: "affected", Type: record.TypeNumber, Value: float64(affectedCount)},
	})
}

// RecordFieldChange appends an entry carrying the before/after values of a
// single field write, as produced by suggestion acceptance.
func (w *Writer) RecordFieldChange(ctx context.Context, action Action, subjectLabel, subjectEntity string,
	actor identity.Principal, affectedPath string, initialValue, value any) {
	w.record(ctx, action, subjectLabel, subjectEntity, actor, 1, []record.Field{
		{Label: "path", Type: record.TypeString, Value: affectedPath},
		{Label: "affected", Type: record.TypeNumber, Value: float64(1)},
		{Label: "initialValue", Type: tagFor(initialValue), Value: initialValue},
		{Label: "value", Type: tagFor(value), Value: value},
	})
}

// tagFor picks the declared type tag matching a field value's shape, so that
// before/after entries stay self-describing. Shapes without a clear tag fall
// back to the string tag.
func tagFor(v any) record.FieldType {
	switch v.(type) {
	case bool:
		return record.TypeBoolean
	case int, int32, int64, float32, float64:
		return record.TypeNumber
	default:
		if _, err := record.ParseValue(record.TypeCoordinates, v); err == nil {
			return record.TypeCoordinates
		}
		return record.TypeString
	}
}

func (w *Writer) record(ctx context.Context, action Action, subjectLabel, subjectEntity string,
	actor identity.Principal, affectedCount int64, values []record.Field) {
	if affectedCount == 0 {
		return
	}

	entry := Entry{
		ID: uuid.NewString(),
		Metadata: EntryMetadata{
			Label:     subjectLabel,
			Entity:    subjectEntity,
			Type:      action,
			CreatedAt: time.Now(),
			CreatedBy: actor.ID,
		},
		Values: values,
	}

	if err := w.store.Append(ctx, entry); err != nil {
		w.logger.ErrorContext(ctx, "failed to append history entry",
			"action", string(action),
			"label", subjectLabel,
			"entity", subjectEntity,
			"error", err.Error(),
		)
		return
	}
	w.metrics.HistoryWritten.Inc()

	if w.archive != nil {
		select {
		case w.archive <- entry:
		default:
			// Archive backpressure must not block request handling.
			w.logger.WarnContext(ctx, "history archive buffer full, entry dropped from archive",
				"entry_id", entry.ID)
			w.metrics.ArchiveFailures.Inc()
		}
	}
}

// List returns audit entries for an entity, newest first.
func (w *Writer) List(ctx context.Context, entity string) ([]Entry, error) {
	out, err := w.store.ListByEntity(ctx, entity)
	if err != nil {
		w.logger.ErrorContext(ctx, "storage failure",
			"op", "list history",
			"error", err.Error(),
		)
		return nil, dErrors.Wrap(dErrors.CodeStorage, "storage operation failed", err)
	}
	return out, nil
}
