// Package api exposes the account and record stores to the dashboard modules
// as a JSON HTTP API.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/pysugar/cloudidp/internal/auth/azure"
	"github.com/pysugar/cloudidp/internal/auth/rbac"
	"github.com/pysugar/cloudidp/internal/auth/session"
	"github.com/pysugar/cloudidp/internal/store"
	"github.com/pysugar/cloudidp/internal/version"
)

// Backend hands out the stores. *manager.Manager satisfies it.
type Backend interface {
	Accounts(ctx context.Context) store.AccountStore
	Records(ctx context.Context) store.RecordStore
	Ready(ctx context.Context) error
}

type Server struct {
	backend       Backend
	sessions      *session.Manager
	signin        *azure.Service
	adminPassword string
	secure        bool
	log           *slog.Logger
}

type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithAdminPassword enables HTTP basic auth as the built-in admin.
func WithAdminPassword(p string) Option {
	return func(s *Server) { s.adminPassword = p }
}

func WithSecureCookies(secure bool) Option {
	return func(s *Server) { s.secure = secure }
}

// WithSignIn mounts the Azure AD sign-in routes.
func WithSignIn(svc *azure.Service) Option {
	return func(s *Server) { s.signin = svc }
}

func New(backend Backend, sessions *session.Manager, opts ...Option) *Server {
	s := &Server{backend: backend, sessions: sessions, log: slog.Default()}
	for _, fn := range opts {
		fn(s)
	}
	return s
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.accessLog)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Get("/api/version", versionHandler)

	if s.signin != nil {
		r.Get("/auth/login", s.signin.HandleLogin)
		r.Get(azure.CallbackPath, s.signin.HandleCallback)
		r.Get("/auth/logout", s.signin.HandleLogout)
		r.Post("/auth/logout", s.signin.HandleLogout)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(s.authenticate)

		r.Get("/me", s.me)
		r.Get("/me/preferences", s.getPreferences)
		r.Put("/me/preferences", s.savePreferences)
		r.Get("/roles", s.listRoles)

		r.Route("/users", func(r chi.Router) {
			r.Use(rbac.Require(rbac.Wildcard))
			r.Get("/", s.listUsers)
			r.Get("/stats", s.userStats)
			r.Post("/batch", s.batchUpdateUsers)
			r.Get("/{id}", s.getUser)
			r.Put("/{id}/role", s.setUserRole)
			r.Post("/{id}/deactivate", s.setUserActive(false))
			r.Post("/{id}/activate", s.setUserActive(true))
			r.Get("/{id}/watch", s.watchUser)
		})
		r.With(rbac.Require(rbac.Wildcard)).Get("/audit", s.queryAudit)

		r.Route("/blueprints", func(r chi.Router) {
			view := rbac.Require(rbac.ViewDashboard)
			edit := rbac.Require(rbac.DesignArchitecture)
			r.With(view).Get("/", s.listBlueprints)
			r.With(edit).Post("/", s.createBlueprint)
			r.With(view).Get("/by-name/{name}", s.getBlueprintByName)
			r.With(view).Get("/{id}", s.getBlueprint)
			r.With(edit).Patch("/{id}", s.updateBlueprint)
			r.With(edit).Delete("/{id}", s.deleteBlueprint)
		})

		view := rbac.Require(rbac.ViewResources, rbac.ProvisionResources)
		provision := rbac.Require(rbac.ProvisionResources, rbac.DeployApplications)
		r.Route("/deployments", func(r chi.Router) {
			r.With(view).Get("/", s.listDeployments)
			r.With(provision).Post("/", s.createDeployment)
			r.With(view).Get("/{deploymentID}", s.getDeployment)
			r.With(provision).Patch("/{deploymentID}", s.updateDeployment)
		})
		r.Route("/operations", func(r chi.Router) {
			r.With(view).Get("/", s.listOperations)
			r.With(provision).Post("/", s.recordOperation)
			r.With(view).Get("/{id}", s.getOperation)
		})
		r.Route("/costs", func(r chi.Router) {
			r.With(rbac.Require(rbac.ViewCosts)).Get("/", s.listCosts)
			r.With(rbac.Require(rbac.AnalyzeCosts)).Post("/", s.recordCost)
		})
		r.Route("/account-configs", func(r chi.Router) {
			r.With(view).Get("/", s.listAccountConfigs)
			r.With(view).Get("/{accountID}", s.getAccountConfig)
			r.With(rbac.Require(rbac.Wildcard)).Put("/{accountID}", s.saveAccountConfig)
		})
	})
	return r
}

func versionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version":    version.Version,
		"commit":     version.Commit,
		"build_time": version.BuildTime,
	})
}

// health reports 503 while either backend is degraded.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.Ready(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listRoles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"roles": rbac.All()})
}
