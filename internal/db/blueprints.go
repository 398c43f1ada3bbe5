package db

import (
	"context"

	"github.com/cockroachdb/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/pysugar/cloudidp/internal/db/models"
	"github.com/pysugar/cloudidp/internal/store"
)

// CreateBlueprint fails with Conflict when the name is taken; the existing
// blueprint is left as is.
func (s *Store) CreateBlueprint(ctx context.Context, in store.BlueprintInput) (store.Blueprint, error) {
	const op = "CreateBlueprint"
	if err := store.Validate(op, in); err != nil {
		return store.Blueprint{}, s.fail(ctx, op, err)
	}
	if in.CreatedBy == "" {
		in.CreatedBy = store.SystemActor
	}

	now := s.now()
	row := models.Blueprint{
		Name:         in.Name,
		Description:  in.Description,
		Category:     in.Category,
		TemplateData: toJSONMap(in.TemplateData),
		Tags:         datatypes.JSONSlice[string](in.Tags),
		Version:      1,
		CreatedBy:    in.CreatedBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if row.Tags == nil {
		row.Tags = datatypes.JSONSlice[string]{}
	}
	err := s.tx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&row).Error
	})
	if err != nil {
		return store.Blueprint{}, s.fail(ctx, op, err)
	}
	return toBlueprint(row), nil
}

func (s *Store) GetBlueprint(ctx context.Context, id int64) (store.Blueprint, error) {
	var row models.Blueprint
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		return store.Blueprint{}, s.fail(ctx, "GetBlueprint", err)
	}
	return toBlueprint(row), nil
}

func (s *Store) GetBlueprintByName(ctx context.Context, name string) (store.Blueprint, error) {
	var row models.Blueprint
	if err := s.db.WithContext(ctx).Where("name = ?", name).Take(&row).Error; err != nil {
		return store.Blueprint{}, s.fail(ctx, "GetBlueprintByName", err)
	}
	return toBlueprint(row), nil
}

// ListBlueprints returns newest first, optionally limited to one category.
func (s *Store) ListBlueprints(ctx context.Context, category string) ([]store.Blueprint, error) {
	q := s.db.WithContext(ctx).Model(&models.Blueprint{})
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var rows []models.Blueprint
	if err := q.Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return []store.Blueprint{}, s.fail(ctx, "ListBlueprints", err)
	}
	return mapSlice(rows, toBlueprint), nil
}

func (s *Store) UpdateBlueprint(ctx context.Context, id int64, u store.BlueprintUpdate) (store.Blueprint, error) {
	const op = "UpdateBlueprint"
	if u.Empty() {
		return store.Blueprint{}, s.fail(ctx, op, store.E(op, store.KindInvalid, errors.New("no fields to update")))
	}
	if u.Name.Valid && u.Name.String == "" {
		return store.Blueprint{}, s.fail(ctx, op, store.E(op, store.KindInvalid, errors.New("name must not be empty")))
	}

	var row models.Blueprint
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).Take(&row).Error; err != nil {
			return err
		}
		if u.Name.Valid {
			row.Name = u.Name.String
		}
		if u.Description.Valid {
			row.Description = u.Description.String
		}
		if u.Category.Valid {
			row.Category = u.Category.String
		}
		if u.TemplateData != nil {
			row.TemplateData = datatypes.JSONMap(u.TemplateData)
		}
		if u.Tags != nil {
			row.Tags = datatypes.JSONSlice[string](u.Tags)
		}
		row.Version++
		row.UpdatedAt = s.now()
		return tx.Save(&row).Error
	})
	if err != nil {
		return store.Blueprint{}, s.fail(ctx, op, err)
	}
	return toBlueprint(row), nil
}

func (s *Store) DeleteBlueprint(ctx context.Context, id int64) error {
	const op = "DeleteBlueprint"
	err := s.tx(ctx, func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&models.Blueprint{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return store.NotFoundf(op, "blueprint %d", id)
		}
		return nil
	})
	if err != nil {
		return s.fail(ctx, op, err)
	}
	return nil
}
