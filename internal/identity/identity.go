// Package identity models the acting principal and its granted habilitation.
// Kept free of service dependencies so every layer can share it.
package identity

import (
	"strings"
	"time"
)

// Principal is the acting user as resolved from the identity provider claims.
// The zero value is a valid anonymous principal: level 0, no entity.
type Principal struct {
	ID           string        `json:"id" bson:"id"`
	DisplayName  string        `json:"displayName" bson:"displayName"`
	Entity       string        `json:"entity" bson:"entity"`
	Habilitation *Habilitation `json:"habilitation,omitempty" bson:"habilitation,omitempty"`
}

// Habilitation is a granted role plus its validation metadata.
type Habilitation struct {
	PrincipalID string    `json:"principalId" bson:"principalId"`
	Role        string    `json:"role" bson:"role"`
	ValidatedBy string    `json:"validatedBy,omitempty" bson:"validatedBy,omitempty"`
	ValidatedAt time.Time `json:"validatedAt,omitempty" bson:"validatedAt,omitempty"`
}

// Role returns the granted role value, or "" when the principal carries no
// habilitation.
func (p Principal) Role() string {
	if p.Habilitation == nil {
		return ""
	}
	return p.Habilitation.Role
}

// entityPrefix marks the organizational entity in the provider's free-text
// structure list (e.g. "DR Bretagne").
const entityPrefix = "DR "

// DeriveEntity extracts the organizational entity code from the identity
// provider's structure list: the first entry carrying the entity prefix wins.
// Returns "" when no entry matches.
func DeriveEntity(structures []string) string {
	for _, s := range structures {
		if strings.HasPrefix(s, entityPrefix) {
			return s
		}
	}
	return ""
}
