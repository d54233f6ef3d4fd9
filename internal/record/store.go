package record

import "context"

// Filter narrows bulk reads. Zero value matches everything.
type Filter struct {
	Entity        string
	LabelContains string
}

// Store is the persistence port for records. Implementations must preserve
// insertion order on List so the access filter upstream stays stable.
type Store interface {
	List(ctx context.Context, filter Filter) ([]Record, error)
	FindByID(ctx context.Context, id string) (Record, error)
	Insert(ctx context.Context, rec Record) error
	// Replace swaps the stored document and reports how many documents were
	// actually modified (0 for a no-op write).
	Replace(ctx context.Context, rec Record) (int64, error)
	// Delete removes the document and reports the deleted count.
	Delete(ctx context.Context, id string) (int64, error)
	// BulkUpsert applies all records in one storage round-trip. Not atomic
	// across documents: on failure some may already be applied, and the
	// returned count says how many were. The error must surface that.
	BulkUpsert(ctx context.Context, recs []Record) (int64, error)
}
