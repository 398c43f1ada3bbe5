// Package rbac maps dashboard roles to the permissions they grant.
package rbac

import (
	"context"
	"net/http"
	"slices"

	"github.com/pysugar/cloudidp/internal/store"
)

// Wildcard grants every permission.
const Wildcard = "*"

// Permissions checked by the dashboard modules.
const (
	ViewDashboard      = "view_dashboard"
	ViewResources      = "view_resources"
	ViewCosts          = "view_costs"
	AnalyzeCosts       = "analyze_costs"
	DesignArchitecture = "design_architecture"
	ProvisionResources = "provision_resources"
	ManagePolicies     = "manage_policies"
	GenerateReports    = "generate_reports"
	DeployApplications = "deploy_applications"
	ViewLogs           = "view_logs"
	UseDevEx           = "use_devex"
	ViewSecurity       = "view_security"
	ManageSecurity     = "manage_security"
	ViewCompliance     = "view_compliance"
)

// Info describes a role for display and permission checks.
type Info struct {
	Role        store.Role `json:"role"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Permissions []string   `json:"permissions"`
}

var roles = map[store.Role]Info{
	store.RoleAdmin: {
		Name:        "Administrator",
		Description: "Full access to all features",
		Permissions: []string{Wildcard},
	},
	store.RoleArchitect: {
		Name:        "Cloud Architect",
		Description: "Design and provision infrastructure",
		Permissions: []string{ViewDashboard, DesignArchitecture, ProvisionResources, ManagePolicies, ViewCosts, GenerateReports},
	},
	store.RoleDeveloper: {
		Name:        "Developer",
		Description: "Deploy applications and view resources",
		Permissions: []string{ViewDashboard, ViewResources, DeployApplications, ViewLogs, UseDevEx},
	},
	store.RoleFinOps: {
		Name:        "FinOps Analyst",
		Description: "View and analyze costs",
		Permissions: []string{ViewDashboard, ViewCosts, AnalyzeCosts, GenerateReports, ViewResources},
	},
	store.RoleSecurity: {
		Name:        "Security Analyst",
		Description: "View and manage security",
		Permissions: []string{ViewDashboard, ViewSecurity, ManageSecurity, ViewCompliance, GenerateReports},
	},
	store.RoleViewer: {
		Name:        "Viewer",
		Description: "Read-only access",
		Permissions: []string{ViewDashboard, ViewResources, ViewCosts},
	},
}

// RoleInfo returns the description of role. Unknown roles report false.
func RoleInfo(role store.Role) (Info, bool) {
	info, ok := roles[role]
	if !ok {
		return Info{}, false
	}
	info.Role = role
	info.Permissions = slices.Clone(info.Permissions)
	return info, true
}

// All returns every role in display order.
func All() []Info {
	out := make([]Info, 0, len(roles))
	for _, r := range store.Roles() {
		info, _ := RoleInfo(r)
		out = append(out, info)
	}
	return out
}

func HasPermission(role store.Role, permission string) bool {
	info, ok := roles[role]
	if !ok {
		return false
	}
	return slices.Contains(info.Permissions, Wildcard) || slices.Contains(info.Permissions, permission)
}

// HasAny reports whether role holds at least one of permissions.
func HasAny(role store.Role, permissions ...string) bool {
	for _, p := range permissions {
		if HasPermission(role, p) {
			return true
		}
	}
	return false
}

type contextKey struct{}

// WithRole records the caller's role for Require.
func WithRole(ctx context.Context, role store.Role) context.Context {
	return context.WithValue(ctx, contextKey{}, role)
}

// RoleFrom returns the role stored by WithRole.
func RoleFrom(ctx context.Context) (store.Role, bool) {
	r, ok := ctx.Value(contextKey{}).(store.Role)
	return r, ok
}

// Require rejects requests whose role holds none of permissions: 401 when no
// role is attached, 403 otherwise.
func Require(permissions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := RoleFrom(r.Context())
			if !ok {
				deny(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if !HasAny(role, permissions...) {
				deny(w, http.StatusForbidden, "permission denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error": "` + msg + `"}`))
}
