// Package suggestion implements the field-edit review queue: visitors propose
// a new value for one record field, entity administrators validate or reject.
package suggestion

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"geoatlas/internal/identity"
)

// Status is the lifecycle state. A suggestion is created pending and only ever
// moves to one of the two terminal states; nothing mutates it afterwards.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// Suggestion references its target record by path string only, a weak
// reference rather than a foreign key: the record may be gone by review time.
type Suggestion struct {
	ID           string             `json:"_id" bson:"_id"`
	Principal    identity.Principal `json:"principal" bson:"principal"`
	Path         string             `json:"path" bson:"path"`
	Entity       string             `json:"entity" bson:"entity"`
	InitialValue any                `json:"initialValue" bson:"initialValue"`
	Value        any                `json:"value" bson:"value"`
	Message      string             `json:"message,omitempty" bson:"message,omitempty"`
	Status       Status             `json:"status" bson:"status"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" bson:"updated_at"`
}

// Store is the persistence port for suggestions.
type Store interface {
	Save(ctx context.Context, s Suggestion) error
	FindByID(ctx context.Context, id string) (Suggestion, error)
	// ListPending returns pending suggestions, oldest first. Empty entity
	// returns all entities.
	ListPending(ctx context.Context, entity string) ([]Suggestion, error)
}

// pathPattern matches the only addressable target shape:
// "<recordID>.values[<index>].value".
var pathPattern = regexp.MustCompile(`^([^.]+)\.values\[(\d+)\]\.value$`)

// ParsePath splits a suggestion path into its record id and value index.
func ParsePath(path string) (recordID string, index int, err error) {
	m := pathPattern.FindStringSubmatch(path)
	if m == nil {
		return "", 0, fmt.Errorf("path %q does not address a record value", path)
	}
	index, err = strconv.Atoi(m[2])
	if err != nil {
		return "", 0, fmt.Errorf("path %q has an invalid index", path)
	}
	return m[1], index, nil
}
