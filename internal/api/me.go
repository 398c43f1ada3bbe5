package api

import (
	"net/http"

	"github.com/pysugar/cloudidp/internal/auth/rbac"
	"github.com/pysugar/cloudidp/internal/store"
)

type meResponse struct {
	User        store.User `json:"user"`
	Role        rbac.Info  `json:"role"`
	BuiltinUser bool       `json:"builtin_admin,omitempty"`
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	info, _ := rbac.RoleInfo(p.User.Role)
	writeJSON(w, http.StatusOK, meResponse{
		User:        p.User,
		Role:        info,
		BuiltinUser: p.SessionID == "",
	})
}

func (s *Server) getPreferences(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	prefs, err := s.backend.Accounts(ctx).GetPreferences(ctx, principalFrom(ctx).User.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (s *Server) savePreferences(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var u store.PreferencesUpdate
	if !decodeJSON(w, r, &u) {
		return
	}
	prefs, err := s.backend.Accounts(ctx).SavePreferences(ctx, principalFrom(ctx).User.ID, u)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}
