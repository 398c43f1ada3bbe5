package store

import (
	"github.com/guregu/null/v5"
)

type Preferences struct {
	Theme                string `json:"theme"`
	DefaultCloud         string `json:"default_cloud"`
	NotificationsEnabled bool   `json:"notifications_enabled"`
	DashboardLayout      string `json:"dashboard_layout"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		Theme:                "light",
		DefaultCloud:         string(CloudAWS),
		NotificationsEnabled: true,
		DashboardLayout:      "default",
	}
}

type PreferencesUpdate struct {
	Theme                null.String `json:"theme"`
	DefaultCloud         null.String `json:"default_cloud"`
	NotificationsEnabled null.Bool   `json:"notifications_enabled"`
	DashboardLayout      null.String `json:"dashboard_layout"`
}

func (u PreferencesUpdate) Check() error {
	if u.DefaultCloud.Valid {
		return ValidateCloud(u.DefaultCloud.String)
	}
	return nil
}

// Apply returns p with the set members of u written over it.
func (u PreferencesUpdate) Apply(p Preferences) Preferences {
	if u.Theme.Valid {
		p.Theme = u.Theme.String
	}
	if u.DefaultCloud.Valid {
		p.DefaultCloud = NormalizeCloud(u.DefaultCloud.String)
	}
	if u.NotificationsEnabled.Valid {
		p.NotificationsEnabled = u.NotificationsEnabled.Bool
	}
	if u.DashboardLayout.Valid {
		p.DashboardLayout = u.DashboardLayout.String
	}
	return p
}
