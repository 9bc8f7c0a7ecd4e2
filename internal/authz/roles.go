// Package authz holds the role vocabulary shared by the issuer, which expands
// roles into permissions, and the resource-side enforcer, which checks them.
package authz

import (
	"slices"
	"strings"
)

// Role names as stored on principals.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Permissions granted per role, in the order they are emitted in tokens.
var rolePermissions = map[string][]string{
	RoleUser:  {"read:own", "write:own"},
	RoleAdmin: {"read:all", "write:all", "delete:all", "admin:users"},
}

// NormalizeRole upper-cases a role and strips an optional "ROLE_" prefix,
// so "role_admin", "ROLE_ADMIN" and "admin" all compare equal.
func NormalizeRole(role string) string {
	r := strings.ToUpper(strings.TrimSpace(role))
	return strings.TrimPrefix(r, "ROLE_")
}

// HasRole reports whether roles contains want after normalization.
func HasRole(roles []string, want string) bool {
	want = NormalizeRole(want)
	return slices.ContainsFunc(roles, func(r string) bool {
		return NormalizeRole(r) == want
	})
}

// HasAnyRole reports whether roles contains any of wants.
func HasAnyRole(roles []string, wants ...string) bool {
	return slices.ContainsFunc(wants, func(w string) bool {
		return HasRole(roles, w)
	})
}

// IsAdmin is shorthand for HasRole(roles, RoleAdmin).
func IsAdmin(roles []string) bool {
	return HasRole(roles, RoleAdmin)
}

// PermissionsFor expands roles into a de-duplicated permission list.
// Unknown roles contribute nothing.
func PermissionsFor(roles []string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, r := range roles {
		for _, p := range rolePermissions[NormalizeRole(r)] {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}
