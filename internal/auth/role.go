package auth

import (
	"fmt"
	"strings"
)

// Role is a closed category of identity. It determines which routes a user
// can reach and which actions they may perform.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleHR          Role = "hr"
	RolePlanner     Role = "planner"
	RoleCommercial  Role = "commercial"
	RoleProcurement Role = "procurement"
	RoleOperations  Role = "operations"
	RoleMaintenance Role = "maintenance"
)

// Roles lists every declared role. Adding a role here requires extending both
// permission tables; catalog validation refuses inconsistent tables at startup.
func Roles() []Role {
	return []Role{
		RoleAdmin,
		RoleHR,
		RolePlanner,
		RoleCommercial,
		RoleProcurement,
		RoleOperations,
		RoleMaintenance,
	}
}

// Valid reports whether r belongs to the closed set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleHR, RolePlanner, RoleCommercial, RoleProcurement, RoleOperations, RoleMaintenance:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// ParseRole normalizes and validates a role name.
func ParseRole(s string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(s)))
	if !role.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
	}
	return role, nil
}
