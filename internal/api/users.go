package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pysugar/cloudidp/internal/auth/session"
	"github.com/pysugar/cloudidp/internal/store"
)

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	activeOnly := false
	if v := r.URL.Query().Get("active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			badRequest(w, "invalid active filter")
			return
		}
		activeOnly = b
	}
	users, err := s.backend.Accounts(ctx).ListUsers(ctx, activeOnly)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users, "count": len(users)})
}

func (s *Server) userStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st, err := s.backend.Accounts(ctx).UserStats(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	u, err := s.backend.Accounts(ctx).GetUser(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// recordAdminEvent appends an audit event on behalf of the caller. A failed
// append is logged; the change it describes has already been made.
func (s *Server) recordAdminEvent(r *http.Request, eventType string, data map[string]any) {
	ctx := r.Context()
	actor := principalFrom(ctx).User
	c := session.ClientFromRequest(r)
	if _, err := s.backend.Accounts(ctx).AppendAuditEvent(ctx, store.AuditEventInput{
		UserID:    actor.ID,
		EventType: eventType,
		Data:      data,
		IPAddress: c.IPAddress,
		UserAgent: c.UserAgent,
	}); err != nil {
		s.log.WarnContext(ctx, "failed to record audit event", "event_type", eventType, "error", err.Error())
	}
}

// rejectSelf refuses admin actions that target the caller.
func rejectSelf(w http.ResponseWriter, r *http.Request, targetID, action string) bool {
	if principalFrom(r.Context()).User.ID == targetID {
		badRequest(w, "you cannot "+action+" yourself")
		return true
	}
	return false
}

func (s *Server) setUserRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	var body struct {
		Role string `json:"role"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	role, err := store.ParseRole(body.Role)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if rejectSelf(w, r, id, "change the role of") {
		return
	}

	accounts := s.backend.Accounts(ctx)
	target, err := accounts.GetUser(ctx, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := accounts.SetUserRole(ctx, id, role); err != nil {
		s.writeError(w, r, err)
		return
	}
	if target.Role != role {
		s.recordAdminEvent(r, store.EventRoleChanged, map[string]any{
			"target_user":  id,
			"target_email": target.Email,
			"old_role":     string(target.Role),
			"new_role":     string(role),
		})
	}
	target.Role = role
	writeJSON(w, http.StatusOK, target)
}

func (s *Server) setUserActive(active bool) http.HandlerFunc {
	event, verb := store.EventUserDeactivated, "deactivate"
	if active {
		event, verb = store.EventUserActivated, "activate"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := chi.URLParam(r, "id")
		if rejectSelf(w, r, id, verb) {
			return
		}
		accounts := s.backend.Accounts(ctx)
		target, err := accounts.GetUser(ctx, id)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if err := accounts.SetUserActive(ctx, id, active); err != nil {
			s.writeError(w, r, err)
			return
		}
		if target.IsActive != active {
			s.recordAdminEvent(r, event, map[string]any{
				"target_user":  id,
				"target_email": target.Email,
			})
		}
		target.IsActive = active
		writeJSON(w, http.StatusOK, target)
	}
}

func (s *Server) batchUpdateUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	batcher, ok := s.backend.Accounts(ctx).(store.UserBatchUpdater)
	if !ok {
		writeJSON(w, http.StatusNotImplemented, errorBody{Error: "batch updates need the document backend"})
		return
	}
	var body struct {
		Updates []store.UserUpdate `json:"updates"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	self := principalFrom(ctx).User.ID
	ids := make([]string, 0, len(body.Updates))
	for _, u := range body.Updates {
		if u.ID == self && (u.Fields.Role.Valid || u.Fields.IsActive.Valid) {
			badRequest(w, "you cannot change your own role or status")
			return
		}
		ids = append(ids, u.ID)
	}
	if err := batcher.BatchUpdateUsers(ctx, body.Updates); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.recordAdminEvent(r, store.EventBatchUpdate, map[string]any{
		"target_users": ids,
		"count":        len(ids),
	})
	writeJSON(w, http.StatusOK, map[string]any{"updated": len(ids)})
}

// watchUser streams the user document as server-sent events until the client
// disconnects.
func (s *Server) watchUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	watcher, ok := s.backend.Accounts(ctx).(store.UserWatcher)
	if !ok {
		writeJSON(w, http.StatusNotImplemented, errorBody{Error: "live updates need the document backend"})
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "streaming unsupported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	err := watcher.WatchUser(ctx, chi.URLParam(r, "id"), func(u store.User, err error) {
		if err != nil {
			b, _ := json.Marshal(errorBody{Error: err.Error(), Kind: store.KindOf(err).String()})
			fmt.Fprintf(w, "event: error\ndata: %s\n\n", b)
		} else {
			b, _ := json.Marshal(u)
			fmt.Fprintf(w, "event: user\ndata: %s\n\n", b)
		}
		flusher.Flush()
	})
	if err != nil {
		s.log.WarnContext(ctx, "user watch ended", "error", err.Error())
	}
}
