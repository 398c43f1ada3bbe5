package db

import (
	"context"

	"gorm.io/gorm"

	"github.com/pysugar/cloudidp/internal/db/models"
	"github.com/pysugar/cloudidp/internal/store"
)

// RecordOperation appends to the operations history. Status defaults to
// success and ExecutedBy to system.
func (s *Store) RecordOperation(ctx context.Context, in store.OperationInput) (store.OperationRecord, error) {
	const op = "RecordOperation"
	if err := store.Validate(op, in); err != nil {
		return store.OperationRecord{}, s.fail(ctx, op, err)
	}
	if in.Status == "" {
		in.Status = "success"
	}
	if in.ExecutedBy == "" {
		in.ExecutedBy = store.SystemActor
	}

	row := models.Operation{
		OperationType:   in.OperationType,
		OperationName:   in.OperationName,
		AccountID:       in.AccountID,
		AccountName:     in.AccountName,
		Region:          in.Region,
		ResourceType:    in.ResourceType,
		ResourceID:      in.ResourceID,
		Status:          in.Status,
		Details:         toJSONMap(in.Details),
		ExecutedBy:      in.ExecutedBy,
		ExecutedAt:      s.now(),
		DurationSeconds: in.DurationSeconds,
	}
	err := s.tx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&row).Error
	})
	if err != nil {
		return store.OperationRecord{}, s.fail(ctx, op, err)
	}
	return toOperation(row), nil
}

func (s *Store) GetOperation(ctx context.Context, id int64) (store.OperationRecord, error) {
	var row models.Operation
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		return store.OperationRecord{}, s.fail(ctx, "GetOperation", err)
	}
	return toOperation(row), nil
}

func (s *Store) ListOperations(ctx context.Context, f store.OperationFilter) ([]store.OperationRecord, error) {
	q := s.db.WithContext(ctx).Model(&models.Operation{})
	if f.AccountID != "" {
		q = q.Where("account_id = ?", f.AccountID)
	}
	if f.OperationType != "" {
		q = q.Where("operation_type = ?", f.OperationType)
	}
	var rows []models.Operation
	err := q.Order("executed_at DESC").Order("id DESC").Limit(f.EffectiveLimit()).Find(&rows).Error
	if err != nil {
		return []store.OperationRecord{}, s.fail(ctx, "ListOperations", err)
	}
	return mapSlice(rows, toOperation), nil
}
