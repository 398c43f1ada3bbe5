package db

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/pysugar/cloudidp/internal/db/models"
	"github.com/pysugar/cloudidp/internal/store"
)

func (s *Store) RecordCost(ctx context.Context, in store.CostInput) (store.CostRecord, error) {
	const op = "RecordCost"
	if err := store.Validate(op, in); err != nil {
		return store.CostRecord{}, s.fail(ctx, op, err)
	}
	if in.Currency == "" {
		in.Currency = store.DefaultCurrency
	}

	row := models.CostData{
		AccountID:   in.AccountID,
		AccountName: in.AccountName,
		Service:     in.Service,
		CostDate:    truncateDay(in.CostDate),
		CostAmount:  in.Amount,
		Currency:    in.Currency,
		RecordedAt:  s.now(),
	}
	err := s.tx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&row).Error
	})
	if err != nil {
		return store.CostRecord{}, s.fail(ctx, op, err)
	}
	return toCost(row), nil
}

// ListCosts orders by cost date, newest first. From and To are inclusive days.
func (s *Store) ListCosts(ctx context.Context, f store.CostFilter) ([]store.CostRecord, error) {
	q := s.db.WithContext(ctx).Model(&models.CostData{})
	if f.AccountID != "" {
		q = q.Where("account_id = ?", f.AccountID)
	}
	if f.Service != "" {
		q = q.Where("service = ?", f.Service)
	}
	if !f.From.IsZero() {
		q = q.Where("cost_date >= ?", truncateDay(f.From))
	}
	if !f.To.IsZero() {
		q = q.Where("cost_date <= ?", truncateDay(f.To))
	}
	var rows []models.CostData
	if err := q.Order("cost_date DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return []store.CostRecord{}, s.fail(ctx, "ListCosts", err)
	}
	return mapSlice(rows, toCost), nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
