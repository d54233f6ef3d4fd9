// Package habilitation manages role grants and the request queue through
// which users ask for them.
package habilitation

import (
	"context"
	"time"

	"geoatlas/internal/identity"
)

// RequestStatus is the lifecycle state of a habilitation request.
type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestValidated RequestStatus = "validated"
	RequestRejected  RequestStatus = "rejected"
)

// Request is a user's ask for a role. At most one pending request exists per
// principal: a second ask replaces the first instead of failing.
type Request struct {
	ID         string             `json:"_id" bson:"_id"`
	Principal  identity.Principal `json:"principal" bson:"principal"`
	Role       string             `json:"role" bson:"role"`
	Status     RequestStatus      `json:"status" bson:"status"`
	ResolvedBy string             `json:"resolvedBy,omitempty" bson:"resolvedBy,omitempty"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at" bson:"updated_at"`
}

// Store persists requests and granted habilitations.
type Store interface {
	// UpsertPending saves the request, replacing any pending request from the
	// same principal (its id is reused).
	UpsertPending(ctx context.Context, req Request) (Request, error)
	FindRequest(ctx context.Context, id string) (Request, error)
	SaveRequest(ctx context.Context, req Request) error
	ListPending(ctx context.Context) ([]Request, error)

	SaveGrant(ctx context.Context, grant identity.Habilitation) error
	// FindGrant returns sentinel.ErrNotFound when the principal holds no role.
	FindGrant(ctx context.Context, principalID string) (identity.Habilitation, error)
}
