package auth

import (
	"fmt"
	"strings"
)

// Catalog holds the static route-access and action-permission tables. Both are
// loaded once at startup and never mutated at runtime.
type Catalog struct {
	routes  map[Role][]string
	actions map[string][]Role
}

// NewCatalog validates and freezes the two tables. Every declared role must
// appear in the route table and every action entry may reference only
// declared roles; an inconsistent catalog fails construction instead of
// failing silently at request time.
func NewCatalog(routes map[Role][]string, actions map[string][]Role) (*Catalog, error) {
	for _, role := range Roles() {
		if _, ok := routes[role]; !ok {
			return nil, fmt.Errorf("%w: role %q missing from route table", ErrInvalidInput, role)
		}
	}
	for role := range routes {
		if !role.Valid() {
			return nil, fmt.Errorf("%w: route table references undeclared role %q", ErrInvalidInput, role)
		}
	}
	for action, allowed := range actions {
		if strings.TrimSpace(action) == "" {
			return nil, fmt.Errorf("%w: empty action name in permission table", ErrInvalidInput)
		}
		for _, role := range allowed {
			if !role.Valid() {
				return nil, fmt.Errorf("%w: action %q references undeclared role %q", ErrInvalidInput, action, role)
			}
		}
	}

	c := &Catalog{
		routes:  make(map[Role][]string, len(routes)),
		actions: make(map[string][]Role, len(actions)),
	}
	for role, prefixes := range routes {
		c.routes[role] = append([]string(nil), prefixes...)
	}
	for action, allowed := range actions {
		c.actions[action] = append([]Role(nil), allowed...)
	}
	return c, nil
}

// RoutesFor returns the route prefixes reachable by role.
func (c *Catalog) RoutesFor(role Role) []string {
	return append([]string(nil), c.routes[role]...)
}

// AllowedRoles returns the roles permitted to perform the named action.
// Unregistered actions return an empty set: nobody is allowed.
func (c *Catalog) AllowedRoles(action string) []Role {
	return append([]Role(nil), c.actions[action]...)
}

var defaultRoutes = map[Role][]string{
	RoleAdmin:       {"/", "/users", "/hr", "/vehicles", "/planning", "/orders", "/inventory", "/maintenance", "/reports", "/settings"},
	RoleHR:          {"/", "/hr"},
	RolePlanner:     {"/", "/planning", "/vehicles"},
	RoleCommercial:  {"/", "/orders", "/reports"},
	RoleProcurement: {"/", "/inventory", "/orders"},
	RoleOperations:  {"/", "/vehicles", "/planning"},
	RoleMaintenance: {"/", "/vehicles", "/maintenance"},
}

var defaultActions = map[string][]Role{
	"add-user":      {RoleAdmin},
	"edit-user":     {RoleAdmin},
	"delete-user":   {RoleAdmin},
	"manage-roles":  {RoleAdmin},
	"add-vehicle":   {RoleAdmin, RoleOperations},
	"edit-vehicle":  {RoleAdmin, RoleOperations, RoleMaintenance},
	"add-order":     {RoleAdmin, RoleCommercial},
	"edit-order":    {RoleAdmin, RoleCommercial},
	"add-inventory": {RoleAdmin, RoleProcurement},
	"add-planning":  {RoleAdmin, RolePlanner},
	"edit-planning": {RoleAdmin, RolePlanner},
	"manage-hr":     {RoleAdmin, RoleHR},
}

// DefaultCatalog returns the tables shipped with the dashboard. The builtin
// tables are validated like any other; a mistake here is a programmer error
// and panics at startup.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(defaultRoutes, defaultActions)
	if err != nil {
		panic(err)
	}
	return c
}
