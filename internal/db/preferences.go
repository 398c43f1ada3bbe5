package db

import (
	"context"

	"github.com/cockroachdb/errors"
	"gorm.io/gorm"

	"github.com/pysugar/cloudidp/internal/db/models"
	"github.com/pysugar/cloudidp/internal/store"
)

func (s *Store) GetPreferences(ctx context.Context, userID string) (store.Preferences, error) {
	var row models.UserPreference
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.DefaultPreferences(), nil
	}
	if err != nil {
		return store.DefaultPreferences(), s.fail(ctx, "GetPreferences", err)
	}
	return toPreferences(row), nil
}

// SavePreferences creates the row from defaults on first save; later saves
// only touch the members set in u.
func (s *Store) SavePreferences(ctx context.Context, userID string, u store.PreferencesUpdate) (store.Preferences, error) {
	const op = "SavePreferences"
	if userID == "" {
		return store.DefaultPreferences(), s.fail(ctx, op, store.E(op, store.KindInvalid, errors.New("empty user id")))
	}
	if err := u.Check(); err != nil {
		return store.DefaultPreferences(), s.fail(ctx, op, store.E(op, store.KindInvalid, err))
	}

	var out store.Preferences
	err := s.tx(ctx, func(tx *gorm.DB) error {
		now := s.now()
		var row models.UserPreference
		err := tx.Where("user_id = ?", userID).Take(&row).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			out = u.Apply(store.DefaultPreferences())
			row.CreatedAt = now
		case err != nil:
			return err
		default:
			out = u.Apply(toPreferences(row))
		}
		return tx.Save(&models.UserPreference{
			UserID:               userID,
			Theme:                out.Theme,
			DefaultCloud:         out.DefaultCloud,
			NotificationsEnabled: out.NotificationsEnabled,
			DashboardLayout:      out.DashboardLayout,
			CreatedAt:            row.CreatedAt,
			UpdatedAt:            now,
		}).Error
	})
	if err != nil {
		return store.DefaultPreferences(), s.fail(ctx, op, err)
	}
	return out, nil
}
