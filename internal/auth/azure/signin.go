package azure

import (
	"context"
	"net/http"

	"github.com/pysugar/cloudidp/internal/auth/session"
	"github.com/pysugar/cloudidp/internal/store"
)

// Provider is recorded on login events.
const Provider = "azure_ad"

// SignIn upserts the user, records the login and opens a session.
// Deactivated users get session.ErrInactive and no session.
func (s *Service) SignIn(ctx context.Context, p store.UserProfile, c session.Client) (store.User, session.Session, error) {
	accounts := s.src.Accounts(ctx)
	u, err := accounts.UpsertUser(ctx, p)
	if err != nil {
		return store.User{}, session.Session{}, err
	}
	if !u.IsActive {
		s.log.InfoContext(ctx, "sign-in refused for deactivated user", "user_id", u.ID)
		return u, session.Session{}, session.ErrInactive
	}

	if _, err := accounts.AppendAuditEvent(ctx, store.AuditEventInput{
		UserID:    u.ID,
		EventType: store.EventLogin,
		Data:      map[string]any{"email": u.Email, "role": string(u.Role), "provider": Provider},
		IPAddress: c.IPAddress,
		UserAgent: c.UserAgent,
	}); err != nil {
		s.log.WarnContext(ctx, "failed to record login", "user_id", u.ID, "error", err.Error())
	}

	sess, err := s.sessions.Create(u, c)
	if err != nil {
		return u, session.Session{}, err
	}
	s.log.InfoContext(ctx, "user signed in", "user_id", u.ID, "role", string(u.Role))
	return u, sess, nil
}

// SignOut ends the session and records the logout. Unknown ids are ignored.
func (s *Service) SignOut(ctx context.Context, sessionID string, c session.Client) {
	sess, ok := s.sessions.Delete(sessionID)
	if !ok {
		return
	}
	if _, err := s.src.Accounts(ctx).AppendAuditEvent(ctx, store.AuditEventInput{
		UserID:    sess.UserID,
		EventType: store.EventLogout,
		Data:      map[string]any{"email": sess.Email},
		IPAddress: c.IPAddress,
		UserAgent: c.UserAgent,
	}); err != nil {
		s.log.WarnContext(ctx, "failed to record logout", "user_id", sess.UserID, "error", err.Error())
	}
}

// HandleLogout clears the session cookie and returns to the start page.
func (s *Service) HandleLogout(w http.ResponseWriter, r *http.Request) {
	s.SignOut(r.Context(), session.IDFromRequest(r), session.ClientFromRequest(r))
	session.ClearCookie(w, s.secure)
	http.Redirect(w, r, "/", http.StatusFound)
}
