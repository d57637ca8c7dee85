package auth

import "strings"

// Engine answers authorization questions from the catalog and a session
// snapshot. Decisions are pure: no I/O, no mutation.
type Engine struct {
	catalog *Catalog
}

// NewEngine wraps a validated catalog.
func NewEngine(catalog *Catalog) *Engine {
	return &Engine{catalog: catalog}
}

// CanReachRoute reports whether the session may reach route. Anonymous
// sessions reach nothing. Matching is exact membership against the configured
// prefixes, not a wildcard scheme: the table enumerates each reachable prefix
// per role.
func (e *Engine) CanReachRoute(s *Session, route string) bool {
	if s == nil {
		return false
	}
	route = strings.TrimSpace(route)
	for _, prefix := range e.catalog.RoutesFor(s.User.Role) {
		if route == prefix {
			return true
		}
	}
	return false
}

// CanPerform reports whether the session may perform the named action.
// Unregistered actions allow nobody (fail closed).
func (e *Engine) CanPerform(s *Session, action string) bool {
	if s == nil {
		return false
	}
	for _, role := range e.catalog.AllowedRoles(action) {
		if role == s.User.Role {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the session holds one of the required roles. An
// empty requirement list means the resource is unrestricted and any
// authenticated session passes. This is the opposite default from CanPerform:
// a caller-supplied empty requirement is not the same question as a missing
// catalog entry, so the two are intentionally not unified.
func (e *Engine) HasAnyRole(s *Session, required ...Role) bool {
	if s == nil {
		return false
	}
	if len(required) == 0 {
		return true
	}
	for _, role := range required {
		if role == s.User.Role {
			return true
		}
	}
	return false
}
