package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pysugar/cloudidp/internal/store"
)

// actor names the caller on records it creates.
func actor(r *http.Request) string {
	u := principalFrom(r.Context()).User
	if u.Email != "" {
		return u.Email
	}
	return u.ID
}

func (s *Server) listBlueprints(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bps, err := s.backend.Records(ctx).ListBlueprints(ctx, r.URL.Query().Get("category"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"blueprints": bps, "count": len(bps)})
}

func (s *Server) createBlueprint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in store.BlueprintInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if in.CreatedBy == "" {
		in.CreatedBy = actor(r)
	}
	bp, err := s.backend.Records(ctx).CreateBlueprint(ctx, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, bp)
}

func (s *Server) getBlueprint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	bp, err := s.backend.Records(ctx).GetBlueprint(ctx, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bp)
}

func (s *Server) getBlueprintByName(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bp, err := s.backend.Records(ctx).GetBlueprintByName(ctx, chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bp)
}

func (s *Server) updateBlueprint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	var u store.BlueprintUpdate
	if !decodeJSON(w, r, &u) {
		return
	}
	bp, err := s.backend.Records(ctx).UpdateBlueprint(ctx, id, u)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bp)
}

func (s *Server) deleteBlueprint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	if err := s.backend.Records(ctx).DeleteBlueprint(ctx, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) listDeployments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	deps, err := s.backend.Records(ctx).ListDeployments(ctx, store.DeploymentFilter{
		AccountID: q.Get("account_id"),
		Status:    q.Get("status"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deployments": deps, "count": len(deps)})
}

func (s *Server) createDeployment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in store.DeploymentInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if in.CreatedBy == "" {
		in.CreatedBy = actor(r)
	}
	d, err := s.backend.Records(ctx).CreateDeployment(ctx, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (s *Server) getDeployment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	d, err := s.backend.Records(ctx).GetDeployment(ctx, chi.URLParam(r, "deploymentID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) updateDeployment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var u store.DeploymentUpdate
	if !decodeJSON(w, r, &u) {
		return
	}
	d, err := s.backend.Records(ctx).UpdateDeployment(ctx, chi.URLParam(r, "deploymentID"), u)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) listOperations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, ok := limitQuery(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	ops, err := s.backend.Records(ctx).ListOperations(ctx, store.OperationFilter{
		AccountID:     q.Get("account_id"),
		OperationType: q.Get("operation_type"),
		Limit:         limit,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"operations": ops, "count": len(ops)})
}

func (s *Server) recordOperation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in store.OperationInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if in.ExecutedBy == "" {
		in.ExecutedBy = actor(r)
	}
	op, err := s.backend.Records(ctx).RecordOperation(ctx, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, op)
}

func (s *Server) getOperation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	op, err := s.backend.Records(ctx).GetOperation(ctx, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, op)
}

// dateQuery parses an optional YYYY-MM-DD query parameter.
func dateQuery(w http.ResponseWriter, r *http.Request, name string) (time.Time, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		badRequest(w, "invalid "+name+": want YYYY-MM-DD")
		return time.Time{}, false
	}
	return t, true
}

func (s *Server) listCosts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	from, ok := dateQuery(w, r, "from")
	if !ok {
		return
	}
	to, ok := dateQuery(w, r, "to")
	if !ok {
		return
	}
	q := r.URL.Query()
	costs, err := s.backend.Records(ctx).ListCosts(ctx, store.CostFilter{
		AccountID: q.Get("account_id"),
		Service:   q.Get("service"),
		From:      from,
		To:        to,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	total := 0.0
	for _, c := range costs {
		total += c.Amount
	}
	writeJSON(w, http.StatusOK, map[string]any{"costs": costs, "count": len(costs), "total": total})
}

func (s *Server) recordCost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in store.CostInput
	if !decodeJSON(w, r, &in) {
		return
	}
	c, err := s.backend.Records(ctx).RecordCost(ctx, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) listAccountConfigs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cfgs, err := s.backend.Records(ctx).ListAccountConfigs(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"account_configs": cfgs, "count": len(cfgs)})
}

func (s *Server) getAccountConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, err := s.backend.Records(ctx).GetAccountConfig(ctx, chi.URLParam(r, "accountID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) saveAccountConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in store.AccountConfigInput
	if !decodeJSON(w, r, &in) {
		return
	}
	in.AccountID = chi.URLParam(r, "accountID")
	c, err := s.backend.Records(ctx).SaveAccountConfig(ctx, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
