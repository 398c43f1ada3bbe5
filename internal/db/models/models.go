// Package models holds the gorm schema of the relational backend.
package models

// All lists every model in migration order.
func All() []any {
	return []any{
		&User{},
		&UserPreference{},
		&AuditLog{},
		&Blueprint{},
		&Deployment{},
		&Operation{},
		&CostData{},
		&AccountConfig{},
	}
}
