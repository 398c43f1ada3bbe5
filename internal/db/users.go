package db

import (
	"context"

	"github.com/cockroachdb/errors"
	"gorm.io/gorm"

	"github.com/pysugar/cloudidp/internal/db/models"
	"github.com/pysugar/cloudidp/internal/store"
)

func (s *Store) UpsertUser(ctx context.Context, p store.UserProfile) (store.User, error) {
	const op = "UpsertUser"
	if err := store.Validate(op, p); err != nil {
		return store.User{}, s.fail(ctx, op, err)
	}

	var out models.User
	err := s.tx(ctx, func(tx *gorm.DB) error {
		now := s.now()
		var row models.User
		err := tx.Where("id = ?", p.ID).Take(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			u := store.User{
				ID:        p.ID,
				Role:      store.DefaultRole,
				IsActive:  true,
				CreatedAt: now,
				UpdatedAt: now,
				LastLogin: now,
			}
			p.ApplyTo(&u)
			out = fromUser(u)
			return tx.Create(&out).Error
		}
		if err != nil {
			return err
		}

		u := toUser(row)
		p.ApplyTo(&u)
		u.UpdatedAt = now
		if now.After(u.LastLogin) {
			u.LastLogin = now
		}
		out = fromUser(u)
		return tx.Save(&out).Error
	})
	if err != nil {
		return store.User{}, s.fail(ctx, op, err)
	}
	return toUser(out), nil
}

func (s *Store) GetUser(ctx context.Context, id string) (store.User, error) {
	var row models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		return store.User{}, s.fail(ctx, "GetUser", err)
	}
	return toUser(row), nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (store.User, error) {
	var row models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).Take(&row).Error; err != nil {
		return store.User{}, s.fail(ctx, "GetUserByEmail", err)
	}
	return toUser(row), nil
}

func (s *Store) SetUserRole(ctx context.Context, id string, role store.Role) error {
	const op = "SetUserRole"
	if !role.Valid() {
		return s.fail(ctx, op, store.E(op, store.KindInvalid, errors.Newf("unknown role %q", role)))
	}
	return s.updateUser(ctx, op, id, map[string]any{"role": string(role)})
}

func (s *Store) SetUserActive(ctx context.Context, id string, active bool) error {
	return s.updateUser(ctx, "SetUserActive", id, map[string]any{"is_active": active})
}

// updateUser writes cols and updated_at to one user, NotFound when no row matched.
func (s *Store) updateUser(ctx context.Context, op, id string, cols map[string]any) error {
	cols["updated_at"] = s.now()
	err := s.tx(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).Where("id = ?", id).Updates(cols)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return store.NotFoundf(op, "user %s", id)
		}
		return nil
	})
	if err != nil {
		return s.fail(ctx, op, err)
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context, activeOnly bool) ([]store.User, error) {
	q := s.db.WithContext(ctx).Model(&models.User{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var rows []models.User
	if err := q.Order("email ASC").Find(&rows).Error; err != nil {
		return []store.User{}, s.fail(ctx, "ListUsers", err)
	}
	return mapSlice(rows, toUser), nil
}

func (s *Store) UserStats(ctx context.Context) (store.UserStats, error) {
	type roleCount struct {
		Role     string
		IsActive bool
		N        int
	}
	var counts []roleCount
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Select("role, is_active, COUNT(*) AS n").
		Group("role, is_active").
		Scan(&counts).Error
	if err != nil {
		return store.UserStats{ByRole: map[store.Role]int{}}, s.fail(ctx, "UserStats", err)
	}

	st := store.UserStats{ByRole: map[store.Role]int{}}
	for _, c := range counts {
		st.Total += c.N
		if c.IsActive {
			st.Active += c.N
		} else {
			st.Inactive += c.N
		}
		st.ByRole[store.Role(c.Role)] += c.N
	}
	return st, nil
}
