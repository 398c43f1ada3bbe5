// Package session keeps signed-in dashboard sessions in memory and resolves
// them to the current user record.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/pysugar/cloudidp/internal/store"
)

// CookieName carries the session id.
const CookieName = "cloudidp_session"

// DefaultTimeout is the lifetime of a session from sign-in.
const DefaultTimeout = 8 * time.Hour

var (
	ErrNoSession = errors.New("not signed in")
	ErrExpired   = errors.New("session expired")
	ErrInactive  = errors.New("user is deactivated")
)

// Source hands out the account store. *manager.Manager satisfies it.
type Source interface {
	Accounts(ctx context.Context) store.AccountStore
}

// Client identifies the browser that signed in.
type Client struct {
	IPAddress string
	UserAgent string
}

// ClientFromRequest reads the caller address, preferring the first
// X-Forwarded-For hop.
func ClientFromRequest(r *http.Request) Client {
	c := Client{UserAgent: r.UserAgent()}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		c.IPAddress = strings.TrimSpace(strings.Split(fwd, ",")[0])
	} else if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		c.IPAddress = host
	} else {
		c.IPAddress = r.RemoteAddr
	}
	return c
}

// Session is one signed-in browser.
type Session struct {
	ID        string     `json:"-"`
	UserID    string     `json:"user_id"`
	Email     string     `json:"email"`
	Role      store.Role `json:"role"`
	IPAddress string     `json:"ip_address"`
	UserAgent string     `json:"user_agent"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// Manager holds sessions keyed by cookie value.
type Manager struct {
	src     Source
	timeout time.Duration
	now     func() time.Time
	log     *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// NewManager creates an empty session table. A non-positive timeout selects
// DefaultTimeout.
func NewManager(src Source, timeout time.Duration, opts ...Option) *Manager {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	m := &Manager{
		src:      src,
		timeout:  timeout,
		now:      time.Now,
		log:      slog.Default(),
		sessions: make(map[string]*Session),
	}
	for _, fn := range opts {
		fn(m)
	}
	return m
}

// Create opens a session for u.
func (m *Manager) Create(u store.User, c Client) (Session, error) {
	id, err := newID()
	if err != nil {
		return Session{}, errors.Wrap(err, "generate session id")
	}
	now := m.now()
	s := &Session{
		ID:        id,
		UserID:    u.ID,
		Email:     u.Email,
		Role:      u.Role,
		IPAddress: c.IPAddress,
		UserAgent: c.UserAgent,
		CreatedAt: now,
		ExpiresAt: now.Add(m.timeout),
	}
	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	return *s, nil
}

// Get returns the live session for id. Expired sessions are dropped.
func (m *Manager) Get(id string) (Session, error) {
	if id == "" {
		return Session{}, ErrNoSession
	}
	m.mu.RLock()
	p, ok := m.sessions[id]
	var s Session
	if ok {
		s = *p
	}
	m.mu.RUnlock()
	if !ok {
		return Session{}, ErrNoSession
	}
	if !m.now().Before(s.ExpiresAt) {
		m.Delete(id)
		return Session{}, ErrExpired
	}
	return s, nil
}

// CurrentUser resolves the session to the stored user. The session ends when
// the user is gone or deactivated; backend failures leave it in place.
func (m *Manager) CurrentUser(ctx context.Context, id string) (store.User, Session, error) {
	s, err := m.Get(id)
	if err != nil {
		return store.User{}, Session{}, err
	}
	u, err := m.src.Accounts(ctx).GetUser(ctx, s.UserID)
	switch {
	case store.IsNotFound(err):
		m.Delete(id)
		return store.User{}, Session{}, ErrNoSession
	case err != nil:
		return store.User{}, s, err
	case !u.IsActive:
		m.Delete(id)
		return store.User{}, Session{}, ErrInactive
	}

	if u.Role != s.Role {
		m.mu.Lock()
		if cur, ok := m.sessions[id]; ok {
			cur.Role = u.Role
		}
		m.mu.Unlock()
		s.Role = u.Role
	}
	return u, s, nil
}

// Delete ends the session and returns it, if it existed.
func (m *Manager) Delete(id string) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, false
	}
	delete(m.sessions, id)
	return *s, true
}

// Len reports the number of stored sessions, expired ones included.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep drops expired sessions and returns how many were removed.
func (m *Manager) Sweep() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if !now.Before(s.ExpiresAt) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// StartSweepLoop runs Sweep every interval until ctx is done.
func (m *Manager) StartSweepLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := m.Sweep(); n > 0 {
					m.log.DebugContext(ctx, "expired sessions removed", "count", n)
				}
			}
		}
	}()
	m.log.InfoContext(ctx, "session sweep loop started", "interval", interval.String())
}

// SetCookie writes the session cookie.
func SetCookie(w http.ResponseWriter, s Session, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    s.ID,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// IDFromRequest returns the session cookie value, or "".
func IDFromRequest(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

func newID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
