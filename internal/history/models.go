// Package history is the append-only audit trail of committed mutations.
// Entries outlive the records they describe: deleting a record never touches
// its history.
package history

import (
	"context"
	"time"

	"geoatlas/internal/record"
)

// Action is the kind of committed mutation an entry describes.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Entry is one immutable audit record. Written once per committed mutation,
// never updated or deleted by normal flow. The values list reuses the record
// field shape: typed key/value pairs describing what changed.
type Entry struct {
	ID       string         `json:"_id" bson:"_id"`
	Metadata EntryMetadata  `json:"metadata" bson:"metadata"`
	Values   []record.Field `json:"values" bson:"values"`
}

// EntryMetadata mirrors the record metadata envelope for the audit log.
type EntryMetadata struct {
	Label     string    `json:"label" bson:"label"`
	Entity    string    `json:"entity" bson:"entity"`
	Type      Action    `json:"type" bson:"type"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	CreatedBy string    `json:"created_by" bson:"created_by"`
}

// Store is the persistence port for the audit log.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	// ListByEntity returns entries for one entity, newest first. Empty entity
	// returns everything.
	ListByEntity(ctx context.Context, entity string) ([]Entry, error)
}
