// Package record models the generic/sub object documents of the application:
// schema-less attribute lists over a fixed metadata envelope, plus the
// structural diff used for suggestions and audit history.
package record

import (
	"strconv"
	"time"

	dErrors "geoatlas/pkg/domain-errors"
)

// FieldType is the declared type tag of a field value.
type FieldType string

const (
	TypeString      FieldType = "string"
	TypeNumber      FieldType = "number"
	TypeBoolean     FieldType = "boolean"
	TypeCoordinates FieldType = "coordinates"
	TypeFile        FieldType = "file"
)

// Metadata is the fixed envelope every record carries. Field names and nesting
// match the stored document layout and must not change.
type Metadata struct {
	Label         string    `json:"label" bson:"label"`
	Entity        string    `json:"entity" bson:"entity"`
	Authorization string    `json:"authorization" bson:"authorization"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	CreatedBy     string    `json:"created_by" bson:"created_by"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
	UpdatedBy     string    `json:"updated_by" bson:"updated_by"`
	Description   string    `json:"description,omitempty" bson:"description,omitempty"`
}

// Field is one attribute of a record. Value holds the raw document shape
// (string, float64, bool, pair of strings, uploaded-file map); its structural
// validity against Type is checked by ParseValue at accept boundaries, the
// storage layer does not enforce it.
type Field struct {
	Label string    `json:"label" bson:"label"`
	Type  FieldType `json:"type" bson:"type"`
	Value any       `json:"value" bson:"value"`
}

// Record is a generic object or sub object. The two share one shape; only
// generic objects carry children, a one-level composition keyed by domain
// category. A child never references its parent: the type has no back pointer,
// so cycles cannot be expressed.
type Record struct {
	ID       string              `json:"_id" bson:"_id"`
	Metadata Metadata            `json:"metadata" bson:"metadata"`
	Values   []Field             `json:"values" bson:"values"`
	Children map[string][]Record `json:"children,omitempty" bson:"children,omitempty"`
}

// Validate checks the construction invariants: a non-empty label and an entity.
// The ID requirement is enforced by the service once the record is persisted.
func (r Record) Validate() error {
	if r.Metadata.Label == "" {
		return dErrors.New(dErrors.CodeValidation, "record label must not be empty")
	}
	if r.Metadata.Entity == "" {
		return dErrors.New(dErrors.CodeValidation, "record entity must be set")
	}
	for i, f := range r.Values {
		if _, err := ParseValue(f.Type, f.Value); err != nil {
			return dErrors.New(dErrors.CodeValidation,
				"values["+strconv.Itoa(i)+"] ("+f.Label+"): "+err.Error())
		}
	}
	for _, children := range r.Children {
		for _, child := range children {
			if err := child.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}
