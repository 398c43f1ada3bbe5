package db

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pysugar/cloudidp/internal/db/models"
	"github.com/pysugar/cloudidp/internal/store"
	"github.com/pysugar/cloudidp/internal/util"
)

func (s *Store) AppendAuditEvent(ctx context.Context, in store.AuditEventInput) (store.AuditEvent, error) {
	const op = "AppendAuditEvent"
	if err := store.Validate(op, in); err != nil {
		return store.AuditEvent{}, s.fail(ctx, op, err)
	}
	in = in.Normalize()

	row := models.AuditLog{
		UserID:    in.UserID,
		EventType: in.EventType,
		EventData: toJSONMap(in.Data),
		IPAddress: in.IPAddress,
		UserAgent: in.UserAgent,
		Timestamp: s.now(),
	}
	err := s.tx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&row).Error
	})
	if err != nil {
		s.log.DebugContext(ctx, "audit payload dropped", "data", util.JSONPreview(in.Data))
		return store.AuditEvent{}, s.fail(ctx, op, err)
	}
	return toAuditEvent(row), nil
}

// QueryAuditEvents orders by timestamp then id so events stamped in the same
// instant still come back newest first.
func (s *Store) QueryAuditEvents(ctx context.Context, f store.AuditFilter) ([]store.AuditEvent, error) {
	q := s.db.WithContext(ctx).Model(&models.AuditLog{})
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.EventType != "" {
		q = q.Where("event_type = ?", f.EventType)
	}

	var rows []models.AuditLog
	err := q.
		Order(clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}, Desc: true}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: true}).
		Limit(f.EffectiveLimit()).
		Find(&rows).Error
	if err != nil {
		return []store.AuditEvent{}, s.fail(ctx, "QueryAuditEvents", err)
	}
	return mapSlice(rows, toAuditEvent), nil
}
