package db

import (
	"context"

	"github.com/cockroachdb/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/pysugar/cloudidp/internal/db/models"
	"github.com/pysugar/cloudidp/internal/store"
)

// SaveAccountConfig inserts or replaces the configuration of one cloud account.
func (s *Store) SaveAccountConfig(ctx context.Context, in store.AccountConfigInput) (store.AccountConfig, error) {
	const op = "SaveAccountConfig"
	if err := store.Validate(op, in); err != nil {
		return store.AccountConfig{}, s.fail(ctx, op, err)
	}

	var row models.AccountConfig
	err := s.tx(ctx, func(tx *gorm.DB) error {
		now := s.now()
		err := tx.Where("account_id = ?", in.AccountID).Take(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			row = models.AccountConfig{AccountID: in.AccountID, CreatedAt: now}
		} else if err != nil {
			return err
		}
		row.AccountName = in.AccountName
		row.Configuration = datatypes.JSONMap(in.Configuration)
		row.UpdatedAt = now
		return tx.Save(&row).Error
	})
	if err != nil {
		return store.AccountConfig{}, s.fail(ctx, op, err)
	}
	return toAccountConfig(row), nil
}

func (s *Store) GetAccountConfig(ctx context.Context, accountID string) (store.AccountConfig, error) {
	var row models.AccountConfig
	if err := s.db.WithContext(ctx).Where("account_id = ?", accountID).Take(&row).Error; err != nil {
		return store.AccountConfig{}, s.fail(ctx, "GetAccountConfig", err)
	}
	return toAccountConfig(row), nil
}

func (s *Store) ListAccountConfigs(ctx context.Context) ([]store.AccountConfig, error) {
	var rows []models.AccountConfig
	if err := s.db.WithContext(ctx).Order("account_name ASC").Find(&rows).Error; err != nil {
		return []store.AccountConfig{}, s.fail(ctx, "ListAccountConfigs", err)
	}
	return mapSlice(rows, toAccountConfig), nil
}
