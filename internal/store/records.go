package store

import (
	"time"

	"github.com/guregu/null/v5"
)

type Blueprint struct {
	ID           int64          `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Category     string         `json:"category"`
	TemplateData map[string]any `json:"template_data"`
	Tags         []string       `json:"tags"`
	Version      int            `json:"version"`
	CreatedBy    string         `json:"created_by"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type BlueprintInput struct {
	Name         string         `json:"name" validate:"required,max=200"`
	Description  string         `json:"description"`
	Category     string         `json:"category"`
	TemplateData map[string]any `json:"template_data" validate:"required"`
	Tags         []string       `json:"tags"`
	CreatedBy    string         `json:"created_by"`
}

type BlueprintUpdate struct {
	Name         null.String    `json:"name"`
	Description  null.String    `json:"description"`
	Category     null.String    `json:"category"`
	TemplateData map[string]any `json:"template_data"`
	Tags         []string       `json:"tags"`
}

func (u BlueprintUpdate) Empty() bool {
	return !u.Name.Valid && !u.Description.Valid && !u.Category.Valid &&
		u.TemplateData == nil && u.Tags == nil
}

// Deployment statuses reported by the provisioning modules.
const (
	DeploymentPending    = "pending"
	DeploymentInProgress = "in_progress"
	DeploymentSucceeded  = "succeeded"
	DeploymentFailed     = "failed"
)

type Deployment struct {
	ID           int64          `json:"id"`
	DeploymentID string         `json:"deployment_id"`
	BlueprintID  int64          `json:"blueprint_id"`
	AccountID    string         `json:"account_id"`
	AccountName  string         `json:"account_name"`
	Region       string         `json:"region"`
	Status       string         `json:"status"`
	StackName    string         `json:"stack_name"`
	Parameters   map[string]any `json:"parameters"`
	Outputs      map[string]any `json:"outputs"`
	CreatedBy    string         `json:"created_by"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type DeploymentInput struct {
	DeploymentID string         `json:"deployment_id"`
	BlueprintID  int64          `json:"blueprint_id"`
	AccountID    string         `json:"account_id" validate:"required"`
	AccountName  string         `json:"account_name"`
	Region       string         `json:"region" validate:"required"`
	Status       string         `json:"status"`
	StackName    string         `json:"stack_name"`
	Parameters   map[string]any `json:"parameters"`
	CreatedBy    string         `json:"created_by"`
}

type DeploymentUpdate struct {
	Status     null.String    `json:"status"`
	StackName  null.String    `json:"stack_name"`
	Parameters map[string]any `json:"parameters"`
	Outputs    map[string]any `json:"outputs"`
}

func (u DeploymentUpdate) Empty() bool {
	return !u.Status.Valid && !u.StackName.Valid && u.Parameters == nil && u.Outputs == nil
}

type DeploymentFilter struct {
	AccountID string
	Status    string
}

// SystemActor is recorded when no user triggered an operation.
const SystemActor = "system"

type OperationRecord struct {
	ID              int64          `json:"id"`
	OperationType   string         `json:"operation_type"`
	OperationName   string         `json:"operation_name"`
	AccountID       string         `json:"account_id"`
	AccountName     string         `json:"account_name"`
	Region          string         `json:"region"`
	ResourceType    string         `json:"resource_type"`
	ResourceID      string         `json:"resource_id"`
	Status          string         `json:"status"`
	Details         map[string]any `json:"details"`
	ExecutedBy      string         `json:"executed_by"`
	ExecutedAt      time.Time      `json:"executed_at"`
	DurationSeconds float64        `json:"duration_seconds"`
}

type OperationInput struct {
	OperationType   string         `json:"operation_type" validate:"required"`
	OperationName   string         `json:"operation_name" validate:"required"`
	AccountID       string         `json:"account_id"`
	AccountName     string         `json:"account_name"`
	Region          string         `json:"region"`
	ResourceType    string         `json:"resource_type"`
	ResourceID      string         `json:"resource_id"`
	Status          string         `json:"status"`
	Details         map[string]any `json:"details"`
	ExecutedBy      string         `json:"executed_by"`
	DurationSeconds float64        `json:"duration_seconds" validate:"gte=0"`
}

type OperationFilter struct {
	AccountID     string
	OperationType string
	Limit         int
}

func (f OperationFilter) EffectiveLimit() int {
	if f.Limit <= 0 {
		return DefaultAuditLimit
	}
	return f.Limit
}

// DefaultCurrency applies to cost records without one.
const DefaultCurrency = "USD"

type CostRecord struct {
	ID          int64     `json:"id"`
	AccountID   string    `json:"account_id"`
	AccountName string    `json:"account_name"`
	Service     string    `json:"service"`
	CostDate    time.Time `json:"cost_date"`
	Amount      float64   `json:"cost_amount"`
	Currency    string    `json:"currency"`
	RecordedAt  time.Time `json:"recorded_at"`
}

type CostInput struct {
	AccountID   string    `json:"account_id" validate:"required"`
	AccountName string    `json:"account_name"`
	Service     string    `json:"service" validate:"required"`
	CostDate    time.Time `json:"cost_date" validate:"required"`
	Amount      float64   `json:"cost_amount"`
	Currency    string    `json:"currency" validate:"omitempty,len=3"`
}

// CostFilter bounds are inclusive; zero times are open.
type CostFilter struct {
	AccountID string
	Service   string
	From      time.Time
	To        time.Time
}

type AccountConfig struct {
	ID            int64          `json:"id"`
	AccountID     string         `json:"account_id"`
	AccountName   string         `json:"account_name"`
	Configuration map[string]any `json:"configuration"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type AccountConfigInput struct {
	AccountID     string         `json:"account_id" validate:"required"`
	AccountName   string         `json:"account_name" validate:"required"`
	Configuration map[string]any `json:"configuration" validate:"required"`
}
