package models

import (
	"time"

	"gorm.io/datatypes"
)

// Blueprint is a reusable infrastructure template; Name must be unique.
type Blueprint struct {
	ID           int64                       `gorm:"primaryKey"`
	Name         string                      `gorm:"uniqueIndex;size:200;not null"`
	Description  string                      `gorm:"type:text"`
	Category     string                      `gorm:"size:100;index"`
	TemplateData datatypes.JSONMap           `gorm:"type:text;not null"`
	Tags         datatypes.JSONSlice[string] `gorm:"type:text"`
	Version      int                         `gorm:"not null;default:1"`
	CreatedBy    string                      `gorm:"size:255"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Deployment struct {
	ID           int64             `gorm:"primaryKey"`
	DeploymentID string            `gorm:"uniqueIndex;size:100;not null"`
	BlueprintID  int64             `gorm:"index"`
	AccountID    string            `gorm:"size:50;index"`
	AccountName  string            `gorm:"size:255"`
	Region       string            `gorm:"size:50"`
	Status       string            `gorm:"size:50;index"`
	StackName    string            `gorm:"size:255"`
	Parameters   datatypes.JSONMap `gorm:"type:text"`
	Outputs      datatypes.JSONMap `gorm:"type:text"`
	CreatedBy    string            `gorm:"size:255"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Operation is one row of the operations history.
type Operation struct {
	ID              int64             `gorm:"primaryKey"`
	OperationType   string            `gorm:"size:100;not null;index"`
	OperationName   string            `gorm:"size:255;not null"`
	AccountID       string            `gorm:"size:50;index"`
	AccountName     string            `gorm:"size:255"`
	Region          string            `gorm:"size:50"`
	ResourceType    string            `gorm:"size:100"`
	ResourceID      string            `gorm:"size:255"`
	Status          string            `gorm:"size:50"`
	Details         datatypes.JSONMap `gorm:"type:text"`
	ExecutedBy      string            `gorm:"size:255"`
	ExecutedAt      time.Time         `gorm:"index"`
	DurationSeconds float64
}

func (Operation) TableName() string { return "operations_history" }

type CostData struct {
	ID          int64     `gorm:"primaryKey"`
	AccountID   string    `gorm:"size:50;index:idx_cost_account_date"`
	AccountName string    `gorm:"size:255"`
	Service     string    `gorm:"size:100;index"`
	CostDate    time.Time `gorm:"index:idx_cost_account_date"`
	CostAmount  float64
	Currency    string `gorm:"size:3;default:'USD'"`
	RecordedAt  time.Time
}

func (CostData) TableName() string { return "cost_data" }

type AccountConfig struct {
	ID            int64             `gorm:"primaryKey"`
	AccountID     string            `gorm:"uniqueIndex;size:50;not null"`
	AccountName   string            `gorm:"size:255;not null"`
	Configuration datatypes.JSONMap `gorm:"type:text;not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
