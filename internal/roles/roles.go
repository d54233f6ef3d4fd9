// Package roles holds the static role table and the permission evaluator that
// gates every read and write in the application.
package roles

import "geoatlas/internal/identity"

// Level is an integer privilege ranking derived from a role. Higher is more
// privileged.
type Level int

// LevelUndefined marks an absent required level. Evaluation fails closed on it.
const LevelUndefined Level = -1

// EntityAdminLevel is the standard threshold for administering records of an
// entity (update, delete, suggestion review).
const EntityAdminLevel Level = 100

// SuperAdminRole is the sentinel role that bypasses entity scoping.
const SuperAdminRole = "SUPER_ADMIN"

// Role is one row of the role table.
type Role struct {
	Label string
	Value string
	Level Level
}

// Table is the ordered role table. It is process-wide static configuration:
// constructed once at startup, read-only afterwards, passed by reference.
// Invariant: levels increase with position and exactly one role is the
// super-admin sentinel.
type Table struct {
	roles []Role
}

// DefaultTable builds the application role table.
func DefaultTable() *Table {
	return NewTable([]Role{
		{Label: "Reader", Value: "LEVEL_0", Level: 0},
		{Label: "Contributor", Value: "LEVEL_50", Level: 50},
		{Label: "Entity administrator", Value: "LEVEL_100", Level: EntityAdminLevel},
		{Label: "Global administrator", Value: SuperAdminRole, Level: 1000},
	})
}

// NewTable copies the given roles into an immutable table.
func NewTable(roles []Role) *Table {
	return &Table{roles: append([]Role(nil), roles...)}
}

// Roles returns a copy of the table rows, in order.
func (t *Table) Roles() []Role {
	return append([]Role(nil), t.roles...)
}

// LevelOf resolves a role value to its level. Unknown or empty roles resolve
// to level 0, never an error.
func (t *Table) LevelOf(roleValue string) Level {
	for _, r := range t.roles {
		if r.Value == roleValue {
			return r.Level
		}
	}
	return 0
}

// Knows reports whether the role value exists in the table.
func (t *Table) Knows(roleValue string) bool {
	for _, r := range t.roles {
		if r.Value == roleValue {
			return true
		}
	}
	return false
}

// CanAccess decides whether the principal may act on a target scoped to
// targetEntity at the given required level.
//
// Rules, in order:
//   - an undefined required level fails closed, for every principal;
//   - the super-admin sentinel bypasses both level and entity checks;
//   - otherwise the principal's level must reach requiredLevel, and when
//     targetEntity is set ("" means unscoped) it must equal the principal's
//     entity.
//
// Pure: no I/O, never panics; the zero Principal evaluates as level 0 with no
// entity.
func (t *Table) CanAccess(p identity.Principal, targetEntity string, requiredLevel Level) bool {
	if requiredLevel == LevelUndefined {
		return false
	}
	role := p.Role()
	if role == SuperAdminRole {
		return true
	}
	if t.LevelOf(role) < requiredLevel {
		return false
	}
	if targetEntity == "" {
		return true
	}
	return p.Entity == targetEntity
}
