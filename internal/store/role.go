package store

import (
	"fmt"
	"strings"
)

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleArchitect Role = "architect"
	RoleDeveloper Role = "developer"
	RoleFinOps    Role = "finops"
	RoleSecurity  Role = "security"
	RoleViewer    Role = "viewer"
)

// DefaultRole is assigned to users on first sign-in.
const DefaultRole = RoleViewer

// Roles lists every assignable role in display order.
func Roles() []Role {
	return []Role{RoleAdmin, RoleArchitect, RoleDeveloper, RoleFinOps, RoleSecurity, RoleViewer}
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleArchitect, RoleDeveloper, RoleFinOps, RoleSecurity, RoleViewer:
		return true
	}
	return false
}

// ParseRole lower-cases and trims s and rejects unknown roles.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}
