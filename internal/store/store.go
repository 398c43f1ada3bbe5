// Package store defines the persistence contract shared by the relational and
// document backends: users, preferences and audit events, plus the JSON
// records kept for the provisioning modules.
//
// Every operation returns an explicit error. Failures carry a Kind so callers
// can tell a missing row from a conflict or an unreachable backend.
package store

import (
	"context"
)

type UserStore interface {
	// UpsertUser creates the user on first sign-in (role viewer, active) or
	// refreshes the profile and login time of an existing one.
	UpsertUser(ctx context.Context, p UserProfile) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	SetUserRole(ctx context.Context, id string, role Role) error
	// SetUserActive toggles access. Users are never deleted.
	SetUserActive(ctx context.Context, id string, active bool) error
	ListUsers(ctx context.Context, activeOnly bool) ([]User, error)
	UserStats(ctx context.Context) (UserStats, error)
}

type PreferenceStore interface {
	// GetPreferences returns DefaultPreferences when nothing is stored.
	GetPreferences(ctx context.Context, userID string) (Preferences, error)
	SavePreferences(ctx context.Context, userID string, u PreferencesUpdate) (Preferences, error)
}

type AuditStore interface {
	AppendAuditEvent(ctx context.Context, in AuditEventInput) (AuditEvent, error)
	// QueryAuditEvents returns newest events first.
	QueryAuditEvents(ctx context.Context, f AuditFilter) ([]AuditEvent, error)
}

// AccountStore is the full user-facing contract every backend implements.
type AccountStore interface {
	UserStore
	PreferenceStore
	AuditStore
	Close() error
}

// UserBatchUpdater applies several partial updates atomically.
type UserBatchUpdater interface {
	BatchUpdateUsers(ctx context.Context, updates []UserUpdate) error
}

// UserWatcher streams changes of one user document until ctx is done.
// fn receives NotFound-kind errors when the user is removed or absent.
type UserWatcher interface {
	WatchUser(ctx context.Context, id string, fn func(User, error)) error
}

type BlueprintStore interface {
	CreateBlueprint(ctx context.Context, in BlueprintInput) (Blueprint, error)
	GetBlueprint(ctx context.Context, id int64) (Blueprint, error)
	GetBlueprintByName(ctx context.Context, name string) (Blueprint, error)
	ListBlueprints(ctx context.Context, category string) ([]Blueprint, error)
	UpdateBlueprint(ctx context.Context, id int64, u BlueprintUpdate) (Blueprint, error)
	DeleteBlueprint(ctx context.Context, id int64) error
}

type DeploymentStore interface {
	CreateDeployment(ctx context.Context, in DeploymentInput) (Deployment, error)
	GetDeployment(ctx context.Context, deploymentID string) (Deployment, error)
	ListDeployments(ctx context.Context, f DeploymentFilter) ([]Deployment, error)
	UpdateDeployment(ctx context.Context, deploymentID string, u DeploymentUpdate) (Deployment, error)
}

type OperationStore interface {
	RecordOperation(ctx context.Context, in OperationInput) (OperationRecord, error)
	GetOperation(ctx context.Context, id int64) (OperationRecord, error)
	ListOperations(ctx context.Context, f OperationFilter) ([]OperationRecord, error)
}

type CostStore interface {
	RecordCost(ctx context.Context, in CostInput) (CostRecord, error)
	ListCosts(ctx context.Context, f CostFilter) ([]CostRecord, error)
}

type AccountConfigStore interface {
	SaveAccountConfig(ctx context.Context, in AccountConfigInput) (AccountConfig, error)
	GetAccountConfig(ctx context.Context, accountID string) (AccountConfig, error)
	ListAccountConfigs(ctx context.Context) ([]AccountConfig, error)
}

type RecordStore interface {
	BlueprintStore
	DeploymentStore
	OperationStore
	CostStore
	AccountConfigStore
	Close() error
}
