package docstore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/cockroachdb/errors"
	"google.golang.org/api/iterator"

	"github.com/pysugar/cloudidp/internal/store"
)

// AppendAuditEvent stamps the event with the server commit time.
func (s *Store) AppendAuditEvent(ctx context.Context, in store.AuditEventInput) (store.AuditEvent, error) {
	const op = "AppendAuditEvent"
	if err := store.Validate(op, in); err != nil {
		return store.AuditEvent{}, s.fail(ctx, op, err)
	}
	in = in.Normalize()

	ref, wr, err := s.audit().Add(ctx, auditData(in))
	if err != nil {
		return store.AuditEvent{}, s.fail(ctx, op, err)
	}
	return store.AuditEvent{
		ID:        ref.ID,
		UserID:    in.UserID,
		EventType: in.EventType,
		Data:      in.Data,
		IPAddress: in.IPAddress,
		UserAgent: in.UserAgent,
		Timestamp: wr.UpdateTime.UTC(),
	}, nil
}

// QueryAuditEvents needs a composite index (user_id, event_type, timestamp
// desc) in production when filters are combined with the ordering.
func (s *Store) QueryAuditEvents(ctx context.Context, f store.AuditFilter) ([]store.AuditEvent, error) {
	const op = "QueryAuditEvents"
	q := s.audit().Query
	if f.UserID != "" {
		q = q.Where("user_id", "==", f.UserID)
	}
	if f.EventType != "" {
		q = q.Where("event_type", "==", f.EventType)
	}
	q = q.OrderBy("timestamp", firestore.Desc).
		OrderBy(firestore.DocumentID, firestore.Desc).
		Limit(f.EffectiveLimit())

	iter := q.Documents(ctx)
	defer iter.Stop()

	events := []store.AuditEvent{}
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return events, nil
		}
		if err != nil {
			return []store.AuditEvent{}, s.fail(ctx, op, err)
		}
		ev, err := auditFromSnapshot(snap)
		if err != nil {
			return []store.AuditEvent{}, s.fail(ctx, op, err)
		}
		events = append(events, ev)
	}
}
