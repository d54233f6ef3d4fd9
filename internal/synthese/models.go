// Package synthese builds composed reports over sub-object snapshots. A
// synthese stores child references only; values are resolved lazily from the
// record store when the report is read.
package synthese

import (
	"context"
	"time"

	"geoatlas/internal/record"
)

// Metadata is the report envelope.
type Metadata struct {
	Reference string    `json:"reference" bson:"reference"`
	Label     string    `json:"label" bson:"label"`
	Entity    string    `json:"entity" bson:"entity"`
	Author    string    `json:"author" bson:"author"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Child references one sub object: its metadata snapshot at composition time
// plus the path used to resolve current values lazily.
type Child struct {
	RecordID string          `json:"recordId" bson:"recordId"`
	Path     string          `json:"path" bson:"path"`
	Metadata record.Metadata `json:"metadata" bson:"metadata"`
}

// Synthese is the stored report.
type Synthese struct {
	ID       string   `json:"_id" bson:"_id"`
	Metadata Metadata `json:"metadata" bson:"metadata"`
	Children []Child  `json:"children" bson:"children"`
}

// ResolvedChild is a child with its values fetched. Missing reports the weak
// reference dangling: the record was deleted since composition.
type ResolvedChild struct {
	Child   Child          `json:"child"`
	Values  []record.Field `json:"values,omitempty"`
	Missing bool           `json:"missing,omitempty"`
}

// Store is the persistence port for syntheses.
type Store interface {
	Save(ctx context.Context, s Synthese) error
	FindByID(ctx context.Context, id string) (Synthese, error)
	// ListByEntity returns syntheses for an entity, newest first. Empty
	// entity returns everything.
	ListByEntity(ctx context.Context, entity string) ([]Synthese, error)
}
