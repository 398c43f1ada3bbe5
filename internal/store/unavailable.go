package store

import (
	"context"
)

// Unavailable returns a store that fails every call with a KindUnavailable
// error wrapping cause. Reads still return their documented sentinel values
// (empty slices, DefaultPreferences) so callers can keep rendering.
func Unavailable(cause error) *UnavailableStore {
	return &UnavailableStore{cause: cause}
}

type UnavailableStore struct {
	cause error
}

var (
	_ AccountStore = (*UnavailableStore)(nil)
	_ RecordStore  = (*UnavailableStore)(nil)
)

func (s *UnavailableStore) fail(op string) error {
	return E(op, KindUnavailable, s.cause)
}

func (s *UnavailableStore) Cause() error { return s.cause }

func (s *UnavailableStore) Close() error { return nil }

func (s *UnavailableStore) UpsertUser(context.Context, UserProfile) (User, error) {
	return User{}, s.fail("UpsertUser")
}

func (s *UnavailableStore) GetUser(context.Context, string) (User, error) {
	return User{}, s.fail("GetUser")
}

func (s *UnavailableStore) GetUserByEmail(context.Context, string) (User, error) {
	return User{}, s.fail("GetUserByEmail")
}

func (s *UnavailableStore) SetUserRole(context.Context, string, Role) error {
	return s.fail("SetUserRole")
}

func (s *UnavailableStore) SetUserActive(context.Context, string, bool) error {
	return s.fail("SetUserActive")
}

func (s *UnavailableStore) ListUsers(context.Context, bool) ([]User, error) {
	return []User{}, s.fail("ListUsers")
}

func (s *UnavailableStore) UserStats(context.Context) (UserStats, error) {
	return UserStats{ByRole: map[Role]int{}}, s.fail("UserStats")
}

func (s *UnavailableStore) GetPreferences(context.Context, string) (Preferences, error) {
	return DefaultPreferences(), s.fail("GetPreferences")
}

func (s *UnavailableStore) SavePreferences(context.Context, string, PreferencesUpdate) (Preferences, error) {
	return DefaultPreferences(), s.fail("SavePreferences")
}

func (s *UnavailableStore) AppendAuditEvent(context.Context, AuditEventInput) (AuditEvent, error) {
	return AuditEvent{}, s.fail("AppendAuditEvent")
}

func (s *UnavailableStore) QueryAuditEvents(context.Context, AuditFilter) ([]AuditEvent, error) {
	return []AuditEvent{}, s.fail("QueryAuditEvents")
}

func (s *UnavailableStore) CreateBlueprint(context.Context, BlueprintInput) (Blueprint, error) {
	return Blueprint{}, s.fail("CreateBlueprint")
}

func (s *UnavailableStore) GetBlueprint(context.Context, int64) (Blueprint, error) {
	return Blueprint{}, s.fail("GetBlueprint")
}

func (s *UnavailableStore) GetBlueprintByName(context.Context, string) (Blueprint, error) {
	return Blueprint{}, s.fail("GetBlueprintByName")
}

func (s *UnavailableStore) ListBlueprints(context.Context, string) ([]Blueprint, error) {
	return []Blueprint{}, s.fail("ListBlueprints")
}

func (s *UnavailableStore) UpdateBlueprint(context.Context, int64, BlueprintUpdate) (Blueprint, error) {
	return Blueprint{}, s.fail("UpdateBlueprint")
}

func (s *UnavailableStore) DeleteBlueprint(context.Context, int64) error {
	return s.fail("DeleteBlueprint")
}

func (s *UnavailableStore) CreateDeployment(context.Context, DeploymentInput) (Deployment, error) {
	return Deployment{}, s.fail("CreateDeployment")
}

func (s *UnavailableStore) GetDeployment(context.Context, string) (Deployment, error) {
	return Deployment{}, s.fail("GetDeployment")
}

func (s *UnavailableStore) ListDeployments(context.Context, DeploymentFilter) ([]Deployment, error) {
	return []Deployment{}, s.fail("ListDeployments")
}

func (s *UnavailableStore) UpdateDeployment(context.Context, string, DeploymentUpdate) (Deployment, error) {
	return Deployment{}, s.fail("UpdateDeployment")
}

func (s *UnavailableStore) RecordOperation(context.Context, OperationInput) (OperationRecord, error) {
	return OperationRecord{}, s.fail("RecordOperation")
}

func (s *UnavailableStore) GetOperation(context.Context, int64) (OperationRecord, error) {
	return OperationRecord{}, s.fail("GetOperation")
}

func (s *UnavailableStore) ListOperations(context.Context, OperationFilter) ([]OperationRecord, error) {
	return []OperationRecord{}, s.fail("ListOperations")
}

func (s *UnavailableStore) RecordCost(context.Context, CostInput) (CostRecord, error) {
	return CostRecord{}, s.fail("RecordCost")
}

func (s *UnavailableStore) ListCosts(context.Context, CostFilter) ([]CostRecord, error) {
	return []CostRecord{}, s.fail("ListCosts")
}

func (s *UnavailableStore) SaveAccountConfig(context.Context, AccountConfigInput) (AccountConfig, error) {
	return AccountConfig{}, s.fail("SaveAccountConfig")
}

func (s *UnavailableStore) GetAccountConfig(context.Context, string) (AccountConfig, error) {
	return AccountConfig{}, s.fail("GetAccountConfig")
}

func (s *UnavailableStore) ListAccountConfigs(context.Context) ([]AccountConfig, error) {
	return []AccountConfig{}, s.fail("ListAccountConfigs")
}
