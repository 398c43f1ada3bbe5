package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/pysugar/cloudidp/internal/auth/rbac"
	"github.com/pysugar/cloudidp/internal/auth/session"
	"github.com/pysugar/cloudidp/internal/logging"
	"github.com/pysugar/cloudidp/internal/store"
)

// AdminUser is the basic-auth user name of the built-in administrator.
const AdminUser = "admin"

// adminPrincipal stands in for a stored user when basic auth is used.
var adminPrincipal = store.User{
	ID:       AdminUser,
	Email:    "admin@localhost",
	Name:     "Administrator",
	Role:     store.RoleAdmin,
	IsActive: true,
}

type principalKey struct{}

// Principal is the caller of an /api request.
type Principal struct {
	User      store.User
	SessionID string
}

func withPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func principalFrom(ctx context.Context) Principal {
	p, _ := ctx.Value(principalKey{}).(Principal)
	return p
}

// requestID takes X-Request-ID from the caller or generates one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = logging.GenerateRequestID()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.InfoContext(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
		)
	})
}

// authenticate resolves the session cookie, or basic auth as the built-in
// admin when an admin password is configured.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var p Principal

		if user, pass, ok := r.BasicAuth(); ok && s.adminPassword != "" {
			if user != AdminUser || subtle.ConstantTimeCompare([]byte(pass), []byte(s.adminPassword)) != 1 {
				w.Header().Set("WWW-Authenticate", `Basic realm="cloudidp"`)
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid credentials"})
				return
			}
			p = Principal{User: adminPrincipal}
		} else {
			u, sess, err := s.sessions.CurrentUser(ctx, session.IDFromRequest(r))
			switch {
			case store.KindOf(err) == store.KindUnavailable:
				s.writeError(w, r, err)
				return
			case errors.Is(err, session.ErrInactive):
				session.ClearCookie(w, s.secure)
				writeJSON(w, http.StatusForbidden, errorBody{Error: err.Error()})
				return
			case err != nil:
				session.ClearCookie(w, s.secure)
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: "authentication required"})
				return
			}
			p = Principal{User: u, SessionID: sess.ID}
		}

		ctx = withPrincipal(ctx, p)
		ctx = rbac.WithRole(ctx, p.User.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
