package models

import "time"

// User is a dashboard identity keyed by the identity provider's object id.
type User struct {
	ID             string `gorm:"primaryKey;size:255"`
	Email          string `gorm:"uniqueIndex;size:255;not null"`
	Name           string `gorm:"size:255"`
	GivenName      string `gorm:"size:255"`
	Surname        string `gorm:"size:255"`
	JobTitle       string `gorm:"size:255"`
	Department     string `gorm:"size:255"`
	OfficeLocation string `gorm:"size:255"`
	Role           string `gorm:"size:50;not null;default:'viewer';index"`
	IsActive       bool   `gorm:"not null;default:true"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastLogin      time.Time
}

// UserPreference holds one row per user; absent rows mean defaults.
type UserPreference struct {
	UserID               string `gorm:"primaryKey;size:255"`
	Theme                string `gorm:"size:20"`
	DefaultCloud         string `gorm:"size:20"`
	NotificationsEnabled bool
	DashboardLayout      string `gorm:"type:text"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
