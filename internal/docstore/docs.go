package docstore

import (
	"time"

	"cloud.google.com/go/firestore"

	"github.com/pysugar/cloudidp/internal/store"
)

type userDoc struct {
	ID             string    `firestore:"id"`
	Email          string    `firestore:"email"`
	Name           string    `firestore:"name"`
	GivenName      string    `firestore:"given_name"`
	Surname        string    `firestore:"surname"`
	JobTitle       string    `firestore:"job_title"`
	Department     string    `firestore:"department"`
	OfficeLocation string    `firestore:"office_location"`
	Role           string    `firestore:"role"`
	IsActive       bool      `firestore:"is_active"`
	CreatedAt      time.Time `firestore:"created_at"`
	UpdatedAt      time.Time `firestore:"updated_at"`
	LastLogin      time.Time `firestore:"last_login"`
}

func (d userDoc) toUser() store.User {
	return store.User{
		ID:             d.ID,
		Email:          d.Email,
		Name:           d.Name,
		GivenName:      d.GivenName,
		Surname:        d.Surname,
		JobTitle:       d.JobTitle,
		Department:     d.Department,
		OfficeLocation: d.OfficeLocation,
		Role:           store.Role(d.Role),
		IsActive:       d.IsActive,
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
		LastLogin:      d.LastLogin.UTC(),
	}
}

func userFromSnapshot(snap *firestore.DocumentSnapshot) (store.User, error) {
	var d userDoc
	if err := snap.DataTo(&d); err != nil {
		return store.User{}, err
	}
	if d.ID == "" {
		d.ID = snap.Ref.ID
	}
	return d.toUser(), nil
}

// newUserData is the document written on first sign-in.
func newUserData(p store.UserProfile) map[string]any {
	u := store.User{ID: p.ID}
	p.ApplyTo(&u)
	return map[string]any{
		"id":              u.ID,
		"email":           u.Email,
		"name":            u.Name,
		"given_name":      u.GivenName,
		"surname":         u.Surname,
		"job_title":       u.JobTitle,
		"department":      u.Department,
		"office_location": u.OfficeLocation,
		"role":            string(store.DefaultRole),
		"is_active":       true,
		"created_at":      firestore.ServerTimestamp,
		"updated_at":      firestore.ServerTimestamp,
		"last_login":      firestore.ServerTimestamp,
	}
}

// profileUpdates refreshes a returning user. Empty profile fields are skipped.
func profileUpdates(p store.UserProfile) []firestore.Update {
	ups := []firestore.Update{
		{Path: "email", Value: p.Email},
	}
	for _, f := range []struct {
		path  string
		value string
	}{
		{"name", p.Name},
		{"given_name", p.GivenName},
		{"surname", p.Surname},
		{"job_title", p.JobTitle},
		{"department", p.Department},
		{"office_location", p.OfficeLocation},
	} {
		if f.value != "" {
			ups = append(ups, firestore.Update{Path: f.path, Value: f.value})
		}
	}
	return append(ups,
		firestore.Update{Path: "updated_at", Value: firestore.ServerTimestamp},
		firestore.Update{Path: "last_login", Value: firestore.ServerTimestamp},
	)
}

// fieldUpdates turns a partial update into Firestore field paths. Role must
// already be validated.
func fieldUpdates(f store.UserFields) []firestore.Update {
	var ups []firestore.Update
	add := func(path string, v any) {
		ups = append(ups, firestore.Update{Path: path, Value: v})
	}
	if f.Email.Valid {
		add("email", f.Email.String)
	}
	if f.Name.Valid {
		add("name", f.Name.String)
	}
	if f.GivenName.Valid {
		add("given_name", f.GivenName.String)
	}
	if f.Surname.Valid {
		add("surname", f.Surname.String)
	}
	if f.JobTitle.Valid {
		add("job_title", f.JobTitle.String)
	}
	if f.Department.Valid {
		add("department", f.Department.String)
	}
	if f.OfficeLocation.Valid {
		add("office_location", f.OfficeLocation.String)
	}
	if f.Role.Valid {
		r, _ := store.ParseRole(f.Role.String)
		add("role", string(r))
	}
	if f.IsActive.Valid {
		add("is_active", f.IsActive.Bool)
	}
	add("updated_at", firestore.ServerTimestamp)
	return ups
}

type preferencesDoc struct {
	Theme                string `firestore:"theme"`
	DefaultCloud         string `firestore:"default_cloud"`
	NotificationsEnabled bool   `firestore:"notifications_enabled"`
	DashboardLayout      string `firestore:"dashboard_layout"`
}

func (d preferencesDoc) toPreferences() store.Preferences {
	return store.Preferences(d)
}

func preferencesData(userID string, p store.Preferences) map[string]any {
	return map[string]any{
		"user_id":               userID,
		"theme":                 p.Theme,
		"default_cloud":         p.DefaultCloud,
		"notifications_enabled": p.NotificationsEnabled,
		"dashboard_layout":      p.DashboardLayout,
		"updated_at":            firestore.ServerTimestamp,
	}
}

type auditDoc struct {
	UserID    string         `firestore:"user_id"`
	EventType string         `firestore:"event_type"`
	EventData map[string]any `firestore:"event_data"`
	IPAddress string         `firestore:"ip_address"`
	UserAgent string         `firestore:"user_agent"`
	Timestamp time.Time      `firestore:"timestamp"`
}

func auditData(in store.AuditEventInput) map[string]any {
	return map[string]any{
		"user_id":    in.UserID,
		"event_type": in.EventType,
		"event_data": in.Data,
		"ip_address": in.IPAddress,
		"user_agent": in.UserAgent,
		"timestamp":  firestore.ServerTimestamp,
	}
}

func auditFromSnapshot(snap *firestore.DocumentSnapshot) (store.AuditEvent, error) {
	var d auditDoc
	if err := snap.DataTo(&d); err != nil {
		return store.AuditEvent{}, err
	}
	if d.EventData == nil {
		d.EventData = map[string]any{}
	}
	return store.AuditEvent{
		ID:        snap.Ref.ID,
		UserID:    d.UserID,
		EventType: d.EventType,
		Data:      d.EventData,
		IPAddress: d.IPAddress,
		UserAgent: d.UserAgent,
		Timestamp: d.Timestamp.UTC(),
	}, nil
}
