package api

import (
	"net/http"

	"github.com/pysugar/cloudidp/internal/store"
)

func (s *Server) queryAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, ok := limitQuery(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	events, err := s.backend.Accounts(ctx).QueryAuditEvents(ctx, store.AuditFilter{
		UserID:    q.Get("user_id"),
		EventType: q.Get("event_type"),
		Limit:     limit,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events, "count": len(events)})
}
