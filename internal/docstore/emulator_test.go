package docstore

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/guregu/null/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/pysugar/cloudidp/internal/store"
)

// newEmulatorStore connects to the Firestore emulator. Each test gets its own
// project id so collections never collide.
func newEmulatorStore(t *testing.T) *Store {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	s, err := Open(context.Background(),
		Config{ProjectID: "test-" + uuid.NewString()[:8]},
		WithClientOptions(option.WithoutAuthentication()),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestEmulatorUserLifecycle(t *testing.T) {
	s := newEmulatorStore(t)
	ctx := context.Background()

	u, err := s.UpsertUser(ctx, store.UserProfile{ID: "u1", Email: "a@example.com", Name: "A", Department: "Ops"})
	require.NoError(t, err)
	assert.Equal(t, store.RoleViewer, u.Role)
	assert.True(t, u.IsActive)
	assert.False(t, u.LastLogin.IsZero())

	again, err := s.UpsertUser(ctx, store.UserProfile{ID: "u1", Email: "a@example.com", Name: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, "Alice", again.Name)
	assert.Equal(t, "Ops", again.Department)
	assert.False(t, again.LastLogin.Before(u.LastLogin))
	assert.True(t, again.CreatedAt.Equal(u.CreatedAt))

	byEmail, err := s.GetUserByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", byEmail.ID)

	require.NoError(t, s.SetUserRole(ctx, "u1", store.RoleAdmin))
	require.NoError(t, s.SetUserActive(ctx, "u1", false))
	assert.True(t, store.IsNotFound(s.SetUserRole(ctx, "ghost", store.RoleAdmin)))

	active, err := s.ListUsers(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)

	st, err := s.UserStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.UserStats{Total: 1, Inactive: 1, ByRole: map[store.Role]int{store.RoleAdmin: 1}}, st)

	_, err = s.GetUser(ctx, "ghost")
	assert.True(t, store.IsNotFound(err))
}

func TestEmulatorPreferences(t *testing.T) {
	s := newEmulatorStore(t)
	ctx := context.Background()

	p, err := s.GetPreferences(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, store.DefaultPreferences(), p)

	_, err = s.SavePreferences(ctx, "u1", store.PreferencesUpdate{Theme: null.StringFrom("dark")})
	require.NoError(t, err)
	_, err = s.SavePreferences(ctx, "u1", store.PreferencesUpdate{DefaultCloud: null.StringFrom("azure")})
	require.NoError(t, err)

	p, err = s.GetPreferences(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, store.Preferences{Theme: "dark", DefaultCloud: "azure", NotificationsEnabled: true, DashboardLayout: "default"}, p)
}

func TestEmulatorAudit(t *testing.T) {
	s := newEmulatorStore(t)
	ctx := context.Background()

	_, err := s.AppendAuditEvent(ctx, store.AuditEventInput{UserID: "u1", EventType: store.EventLogin})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	last, err := s.AppendAuditEvent(ctx, store.AuditEventInput{
		UserID: "u1", EventType: store.EventRoleChanged, Data: map[string]any{"new_role": "admin"},
	})
	require.NoError(t, err)

	events, err := s.QueryAuditEvents(ctx, store.AuditFilter{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, last.ID, events[0].ID)
	assert.Equal(t, "admin", events[0].Data["new_role"])
	assert.Equal(t, store.UnknownClient, events[1].IPAddress)
}

func TestEmulatorBatchUpdateIsAtomic(t *testing.T) {
	s := newEmulatorStore(t)
	ctx := context.Background()

	for _, id := range []string{"u1", "u2"} {
		_, err := s.UpsertUser(ctx, store.UserProfile{ID: id, Email: id + "@example.com"})
		require.NoError(t, err)
	}

	err := s.BatchUpdateUsers(ctx, []store.UserUpdate{
		{ID: "u1", Fields: store.UserFields{Role: null.StringFrom("developer")}},
		{ID: "ghost", Fields: store.UserFields{Role: null.StringFrom("developer")}},
	})
	assert.True(t, store.IsNotFound(err), "got %v", err)

	u1, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, store.RoleViewer, u1.Role)

	err = s.BatchUpdateUsers(ctx, []store.UserUpdate{
		{ID: "u1", Fields: store.UserFields{Role: null.StringFrom("developer")}},
		{ID: "u2", Fields: store.UserFields{IsActive: null.BoolFrom(false), JobTitle: null.StringFrom("SRE")}},
	})
	require.NoError(t, err)

	u2, err := s.GetUser(ctx, "u2")
	require.NoError(t, err)
	assert.False(t, u2.IsActive)
	assert.Equal(t, "SRE", u2.JobTitle)

	err = s.BatchUpdateUsers(ctx, []store.UserUpdate{{ID: "u1", Fields: store.UserFields{Role: null.StringFrom("root")}}})
	assert.Equal(t, store.KindInvalid, store.KindOf(err))
}

func TestEmulatorWatchUser(t *testing.T) {
	s := newEmulatorStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := s.UpsertUser(ctx, store.UserProfile{ID: "u1", Email: "a@example.com"})
	require.NoError(t, err)

	var (
		mu    sync.Mutex
		roles []store.Role
	)
	seen := make(chan struct{}, 8)
	done := make(chan error, 1)
	watchCtx, stop := context.WithCancel(ctx)
	go func() {
		done <- s.WatchUser(watchCtx, "u1", func(u store.User, err error) {
			if err != nil {
				return
			}
			mu.Lock()
			roles = append(roles, u.Role)
			mu.Unlock()
			seen <- struct{}{}
		})
	}()

	<-seen
	require.NoError(t, s.SetUserRole(ctx, "u1", store.RoleFinOps))
	<-seen
	stop()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, store.RoleViewer, roles[0])
	assert.Equal(t, store.RoleFinOps, roles[len(roles)-1])
}
