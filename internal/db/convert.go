package db

import (
	"encoding/json"
	"strconv"

	"gorm.io/datatypes"

	"github.com/pysugar/cloudidp/internal/db/models"
	"github.com/pysugar/cloudidp/internal/store"
)

func toUser(m models.User) store.User {
	return store.User{
		ID:             m.ID,
		Email:          m.Email,
		Name:           m.Name,
		GivenName:      m.GivenName,
		Surname:        m.Surname,
		JobTitle:       m.JobTitle,
		Department:     m.Department,
		OfficeLocation: m.OfficeLocation,
		Role:           store.Role(m.Role),
		IsActive:       m.IsActive,
		CreatedAt:      m.CreatedAt.UTC(),
		UpdatedAt:      m.UpdatedAt.UTC(),
		LastLogin:      m.LastLogin.UTC(),
	}
}

func fromUser(u store.User) models.User {
	return models.User{
		ID:             u.ID,
		Email:          u.Email,
		Name:           u.Name,
		GivenName:      u.GivenName,
		Surname:        u.Surname,
		JobTitle:       u.JobTitle,
		Department:     u.Department,
		OfficeLocation: u.OfficeLocation,
		Role:           string(u.Role),
		IsActive:       u.IsActive,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
		LastLogin:      u.LastLogin,
	}
}

func toPreferences(m models.UserPreference) store.Preferences {
	return store.Preferences{
		Theme:                m.Theme,
		DefaultCloud:         m.DefaultCloud,
		NotificationsEnabled: m.NotificationsEnabled,
		DashboardLayout:      m.DashboardLayout,
	}
}

func toAuditEvent(m models.AuditLog) store.AuditEvent {
	return store.AuditEvent{
		ID:        strconv.FormatUint(uint64(m.ID), 10),
		UserID:    m.UserID,
		EventType: m.EventType,
		Data:      jsonMap(m.EventData),
		IPAddress: m.IPAddress,
		UserAgent: m.UserAgent,
		Timestamp: m.Timestamp.UTC(),
	}
}

func toBlueprint(m models.Blueprint) store.Blueprint {
	tags := []string(m.Tags)
	if tags == nil {
		tags = []string{}
	}
	return store.Blueprint{
		ID:           m.ID,
		Name:         m.Name,
		Description:  m.Description,
		Category:     m.Category,
		TemplateData: jsonMap(m.TemplateData),
		Tags:         tags,
		Version:      m.Version,
		CreatedBy:    m.CreatedBy,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

func toDeployment(m models.Deployment) store.Deployment {
	return store.Deployment{
		ID:           m.ID,
		DeploymentID: m.DeploymentID,
		BlueprintID:  m.BlueprintID,
		AccountID:    m.AccountID,
		AccountName:  m.AccountName,
		Region:       m.Region,
		Status:       m.Status,
		StackName:    m.StackName,
		Parameters:   jsonMap(m.Parameters),
		Outputs:      jsonMap(m.Outputs),
		CreatedBy:    m.CreatedBy,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

func toOperation(m models.Operation) store.OperationRecord {
	return store.OperationRecord{
		ID:              m.ID,
		OperationType:   m.OperationType,
		OperationName:   m.OperationName,
		AccountID:       m.AccountID,
		AccountName:     m.AccountName,
		Region:          m.Region,
		ResourceType:    m.ResourceType,
		ResourceID:      m.ResourceID,
		Status:          m.Status,
		Details:         jsonMap(m.Details),
		ExecutedBy:      m.ExecutedBy,
		ExecutedAt:      m.ExecutedAt.UTC(),
		DurationSeconds: m.DurationSeconds,
	}
}

func toCost(m models.CostData) store.CostRecord {
	return store.CostRecord{
		ID:          m.ID,
		AccountID:   m.AccountID,
		AccountName: m.AccountName,
		Service:     m.Service,
		CostDate:    m.CostDate.UTC(),
		Amount:      m.CostAmount,
		Currency:    m.Currency,
		RecordedAt:  m.RecordedAt.UTC(),
	}
}

func toAccountConfig(m models.AccountConfig) store.AccountConfig {
	return store.AccountConfig{
		ID:            m.ID,
		AccountID:     m.AccountID,
		AccountName:   m.AccountName,
		Configuration: jsonMap(m.Configuration),
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

// jsonMap never returns nil so API responses render {} rather than null.
// JSONMap.Scan decodes numbers as json.Number; they are re-decoded here so
// stored numbers come back as float64, the same as on write.
func jsonMap(m datatypes.JSONMap) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	b, err := json.Marshal(map[string]any(m))
	if err != nil {
		return map[string]any(m)
	}
	out := map[string]any{}
	if err := json.Unmarshal(b, &out); err != nil {
		return map[string]any(m)
	}
	return out
}

func toJSONMap(m map[string]any) datatypes.JSONMap {
	if m == nil {
		return datatypes.JSONMap{}
	}
	return datatypes.JSONMap(m)
}

func mapSlice[M any, T any](rows []M, conv func(M) T) []T {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		out = append(out, conv(r))
	}
	return out
}
