package db

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/pysugar/cloudidp/internal/db/models"
	"github.com/pysugar/cloudidp/internal/store"
)

func (s *Store) CreateDeployment(ctx context.Context, in store.DeploymentInput) (store.Deployment, error) {
	const op = "CreateDeployment"
	if err := store.Validate(op, in); err != nil {
		return store.Deployment{}, s.fail(ctx, op, err)
	}
	if in.DeploymentID == "" {
		in.DeploymentID = uuid.NewString()
	}
	if in.Status == "" {
		in.Status = store.DeploymentPending
	}
	if in.CreatedBy == "" {
		in.CreatedBy = store.SystemActor
	}

	now := s.now()
	row := models.Deployment{
		DeploymentID: in.DeploymentID,
		BlueprintID:  in.BlueprintID,
		AccountID:    in.AccountID,
		AccountName:  in.AccountName,
		Region:       in.Region,
		Status:       in.Status,
		StackName:    in.StackName,
		Parameters:   toJSONMap(in.Parameters),
		Outputs:      datatypes.JSONMap{},
		CreatedBy:    in.CreatedBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err := s.tx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&row).Error
	})
	if err != nil {
		return store.Deployment{}, s.fail(ctx, op, err)
	}
	return toDeployment(row), nil
}

func (s *Store) GetDeployment(ctx context.Context, deploymentID string) (store.Deployment, error) {
	var row models.Deployment
	if err := s.db.WithContext(ctx).Where("deployment_id = ?", deploymentID).Take(&row).Error; err != nil {
		return store.Deployment{}, s.fail(ctx, "GetDeployment", err)
	}
	return toDeployment(row), nil
}

func (s *Store) ListDeployments(ctx context.Context, f store.DeploymentFilter) ([]store.Deployment, error) {
	q := s.db.WithContext(ctx).Model(&models.Deployment{})
	if f.AccountID != "" {
		q = q.Where("account_id = ?", f.AccountID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var rows []models.Deployment
	if err := q.Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return []store.Deployment{}, s.fail(ctx, "ListDeployments", err)
	}
	return mapSlice(rows, toDeployment), nil
}

func (s *Store) UpdateDeployment(ctx context.Context, deploymentID string, u store.DeploymentUpdate) (store.Deployment, error) {
	const op = "UpdateDeployment"
	if u.Empty() {
		return store.Deployment{}, s.fail(ctx, op, store.E(op, store.KindInvalid, errors.New("no fields to update")))
	}

	var row models.Deployment
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("deployment_id = ?", deploymentID).Take(&row).Error; err != nil {
			return err
		}
		if u.Status.Valid {
			row.Status = u.Status.String
		}
		if u.StackName.Valid {
			row.StackName = u.StackName.String
		}
		if u.Parameters != nil {
			row.Parameters = datatypes.JSONMap(u.Parameters)
		}
		if u.Outputs != nil {
			row.Outputs = datatypes.JSONMap(u.Outputs)
		}
		row.UpdatedAt = s.now()
		return tx.Save(&row).Error
	})
	if err != nil {
		return store.Deployment{}, s.fail(ctx, op, err)
	}
	return toDeployment(row), nil
}
