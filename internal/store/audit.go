package store

import "time"

// Well-known audit event types. Callers may append others.
const (
	EventLogin           = "login"
	EventLogout          = "logout"
	EventRoleChanged     = "role_changed"
	EventUserDeactivated = "user_deactivated"
	EventUserActivated   = "user_activated"
	EventBatchUpdate     = "users_batch_updated"
)

// UnknownClient is stored when the caller cannot tell the IP or user agent.
const UnknownClient = "unknown"

// DefaultAuditLimit caps QueryAuditEvents when no limit is given.
const DefaultAuditLimit = 100

type AuditEventInput struct {
	UserID    string         `json:"user_id" validate:"required"`
	EventType string         `json:"event_type" validate:"required"`
	Data      map[string]any `json:"event_data"`
	IPAddress string         `json:"ip_address"`
	UserAgent string         `json:"user_agent"`
}

// Normalize fills the client fields the caller left blank.
func (in AuditEventInput) Normalize() AuditEventInput {
	if in.IPAddress == "" {
		in.IPAddress = UnknownClient
	}
	if in.UserAgent == "" {
		in.UserAgent = UnknownClient
	}
	if in.Data == nil {
		in.Data = map[string]any{}
	}
	return in
}

type AuditEvent struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	EventType string         `json:"event_type"`
	Data      map[string]any `json:"event_data"`
	IPAddress string         `json:"ip_address"`
	UserAgent string         `json:"user_agent"`
	Timestamp time.Time      `json:"timestamp"`
}

// AuditFilter holds optional equality filters; empty strings match anything.
type AuditFilter struct {
	UserID    string
	EventType string
	Limit     int
}

func (f AuditFilter) EffectiveLimit() int {
	if f.Limit <= 0 {
		return DefaultAuditLimit
	}
	return f.Limit
}
