package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog is append-only.
type AuditLog struct {
	ID        uint              `gorm:"primaryKey"`
	UserID    string            `gorm:"size:255;not null;index"`
	EventType string            `gorm:"size:100;not null;index"`
	EventData datatypes.JSONMap `gorm:"type:text"`
	IPAddress string            `gorm:"size:100"`
	UserAgent string            `gorm:"type:text"`
	Timestamp time.Time         `gorm:"index"`
}

func (AuditLog) TableName() string { return "audit_log" }
