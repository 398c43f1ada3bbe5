package db

import (
	"context"
	"testing"
	"time"

	"github.com/guregu/null/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pysugar/cloudidp/internal/db/models"
	"github.com/pysugar/cloudidp/internal/store"
)

func TestUpsertUserCreatesWithDefaults(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	u, err := s.UpsertUser(ctx, store.UserProfile{ID: "u1", Email: "a@example.com", Name: "A"})
	require.NoError(t, err)
	assert.Equal(t, store.RoleViewer, u.Role)
	assert.True(t, u.IsActive)
	assertSameTime(t, testEpoch, u.CreatedAt)
	assertSameTime(t, testEpoch, u.LastLogin)

	got, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", got.Email)
	assert.Equal(t, "A", got.Name)
	assert.Equal(t, store.RoleViewer, got.Role)
}

func TestUpsertUserRefreshesProfileAndLogin(t *testing.T) {
	s, clk := newTestStore(t)
	ctx := context.Background()

	_, err := s.UpsertUser(ctx, store.UserProfile{ID: "u1", Email: "a@example.com", Name: "A", Department: "Ops"})
	require.NoError(t, err)
	require.NoError(t, s.SetUserRole(ctx, "u1", store.RoleArchitect))

	clk.Advance(time.Hour)
	u, err := s.UpsertUser(ctx, store.UserProfile{ID: "u1", Email: "a@example.com", Name: "Alice"})
	require.NoError(t, err)

	assert.Equal(t, "Alice", u.Name)
	assert.Equal(t, "Ops", u.Department)
	assert.Equal(t, store.RoleArchitect, u.Role)
	assertSameTime(t, testEpoch, u.CreatedAt)
	assertSameTime(t, testEpoch.Add(time.Hour), u.LastLogin)
	assertSameTime(t, testEpoch.Add(time.Hour), u.UpdatedAt)
}

func TestUpsertUserLastLoginNeverDecreases(t *testing.T) {
	s, clk := newTestStore(t)
	ctx := context.Background()

	clk.Advance(time.Hour)
	_, err := s.UpsertUser(ctx, store.UserProfile{ID: "u1", Email: "a@example.com"})
	require.NoError(t, err)

	clk.Set(testEpoch)
	u, err := s.UpsertUser(ctx, store.UserProfile{ID: "u1", Email: "a@example.com"})
	require.NoError(t, err)
	assertSameTime(t, testEpoch.Add(time.Hour), u.LastLogin)
}

func TestUpsertUserRejectsInvalidProfile(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.UpsertUser(context.Background(), store.UserProfile{ID: "u1", Email: "nope"})
	assert.Equal(t, store.KindInvalid, store.KindOf(err))

	_, err = s.UpsertUser(context.Background(), store.UserProfile{Email: "a@example.com"})
	assert.Equal(t, store.KindInvalid, store.KindOf(err))
}

func TestUpsertUserDuplicateEmailConflicts(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.UpsertUser(ctx, store.UserProfile{ID: "u1", Email: "a@example.com"})
	require.NoError(t, err)
	_, err = s.UpsertUser(ctx, store.UserProfile{ID: "u2", Email: "a@example.com"})
	assert.True(t, store.IsConflict(err), "got %v", err)
}

func TestGetUserNotFound(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.GetUser(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.GetUserByEmail(context.Background(), "missing@example.com")
	assert.True(t, store.IsNotFound(err))
}

func TestGetUserByEmail(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.UpsertUser(ctx, store.UserProfile{ID: "u1", Email: "a@example.com"})
	require.NoError(t, err)

	u, err := s.GetUserByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
}

func TestSetUserRole(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.UpsertUser(ctx, store.UserProfile{ID: "u1", Email: "a@example.com"})
	require.NoError(t, err)

	require.NoError(t, s.SetUserRole(ctx, "u1", store.RoleFinOps))
	u, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, store.RoleFinOps, u.Role)

	err = s.SetUserRole(ctx, "u1", store.Role("root"))
	assert.Equal(t, store.KindInvalid, store.KindOf(err))

	err = s.SetUserRole(ctx, "ghost", store.RoleAdmin)
	assert.True(t, store.IsNotFound(err))
}

func TestSetUserActiveAndList(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	for _, p := range []store.UserProfile{
		{ID: "u1", Email: "a@example.com"},
		{ID: "u2", Email: "b@example.com"},
		{ID: "u3", Email: "c@example.com"},
	} {
		_, err := s.UpsertUser(ctx, p)
		require.NoError(t, err)
	}
	require.NoError(t, s.SetUserActive(ctx, "u2", false))
	assert.True(t, store.IsNotFound(s.SetUserActive(ctx, "ghost", false)))

	active, err := s.ListUsers(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "u1", active[0].ID)
	assert.Equal(t, "u3", active[1].ID)

	all, err := s.ListUsers(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	u2, err := s.GetUser(ctx, "u2")
	require.NoError(t, err)
	assert.False(t, u2.IsActive)

	require.NoError(t, s.SetUserActive(ctx, "u2", true))
	active, err = s.ListUsers(ctx, true)
	require.NoError(t, err)
	assert.Len(t, active, 3)
}

func TestListUsersEmpty(t *testing.T) {
	s, _ := newTestStore(t)

	users, err := s.ListUsers(context.Background(), false)
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func TestUserStats(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"u1", "u2", "u3"} {
		_, err := s.UpsertUser(ctx, store.UserProfile{ID: id, Email: id + "@example.com"})
		require.NoError(t, err)
	}
	require.NoError(t, s.SetUserRole(ctx, "u1", store.RoleAdmin))
	require.NoError(t, s.SetUserActive(ctx, "u3", false))

	st, err := s.UserStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 2, st.Active)
	assert.Equal(t, 1, st.Inactive)
	assert.Equal(t, map[store.Role]int{store.RoleAdmin: 1, store.RoleViewer: 2}, st.ByRole)
}

func TestPreferencesDefaultsOnMiss(t *testing.T) {
	s, _ := newTestStore(t)

	p, err := s.GetPreferences(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, store.DefaultPreferences(), p)
}

func TestSavePreferencesFirstSaveFillsDefaults(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	saved, err := s.SavePreferences(ctx, "u1", store.PreferencesUpdate{Theme: null.StringFrom("dark")})
	require.NoError(t, err)
	want := store.Preferences{Theme: "dark", DefaultCloud: "aws", NotificationsEnabled: true, DashboardLayout: "default"}
	assert.Equal(t, want, saved)

	got, err := s.GetPreferences(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSavePreferencesLaterSaveKeepsUnspecified(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.SavePreferences(ctx, "u1", store.PreferencesUpdate{
		Theme:        null.StringFrom("dark"),
		DefaultCloud: null.StringFrom("gcp"),
	})
	require.NoError(t, err)

	_, err = s.SavePreferences(ctx, "u1", store.PreferencesUpdate{NotificationsEnabled: null.BoolFrom(false)})
	require.NoError(t, err)

	got, err := s.GetPreferences(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, store.Preferences{Theme: "dark", DefaultCloud: "gcp", NotificationsEnabled: false, DashboardLayout: "default"}, got)
}

func TestSavePreferencesStampsCreatedOnce(t *testing.T) {
	s, clk := newTestStore(t)
	ctx := context.Background()

	_, err := s.SavePreferences(ctx, "u1", store.PreferencesUpdate{Theme: null.StringFrom("dark")})
	require.NoError(t, err)
	clk.Advance(time.Hour)
	_, err = s.SavePreferences(ctx, "u1", store.PreferencesUpdate{Theme: null.StringFrom("light")})
	require.NoError(t, err)

	var row models.UserPreference
	require.NoError(t, s.db.Where("user_id = ?", "u1").Take(&row).Error)
	assertSameTime(t, testEpoch, row.CreatedAt)
	assertSameTime(t, testEpoch.Add(time.Hour), row.UpdatedAt)
}

func TestSavePreferencesRejectsUnknownCloud(t *testing.T) {
	s, _ := newTestStore(t)

	p, err := s.SavePreferences(context.Background(), "u1", store.PreferencesUpdate{DefaultCloud: null.StringFrom("oracle")})
	assert.Equal(t, store.KindInvalid, store.KindOf(err))
	assert.Equal(t, store.DefaultPreferences(), p)
}

func TestAuditAppendAndQuery(t *testing.T) {
	s, clk := newTestStore(t)
	ctx := context.Background()

	ev, err := s.AppendAuditEvent(ctx, store.AuditEventInput{UserID: "u1", EventType: store.EventLogin})
	require.NoError(t, err)
	assert.Equal(t, store.UnknownClient, ev.IPAddress)
	assert.Equal(t, store.UnknownClient, ev.UserAgent)
	assertSameTime(t, testEpoch, ev.Timestamp)

	clk.Advance(time.Minute)
	_, err = s.AppendAuditEvent(ctx, store.AuditEventInput{
		UserID: "u2", EventType: store.EventLogin, IPAddress: "10.0.0.1", UserAgent: "curl",
	})
	require.NoError(t, err)

	clk.Advance(time.Minute)
	_, err = s.AppendAuditEvent(ctx, store.AuditEventInput{
		UserID: "u1", EventType: store.EventRoleChanged,
		Data: map[string]any{"old_role": "viewer", "new_role": "admin"},
	})
	require.NoError(t, err)

	all, err := s.QueryAuditEvents(ctx, store.AuditFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, store.EventRoleChanged, all[0].EventType)
	assert.Equal(t, "admin", all[0].Data["new_role"])
	assert.Equal(t, "u2", all[1].UserID)

	u1, err := s.QueryAuditEvents(ctx, store.AuditFilter{UserID: "u1"})
	require.NoError(t, err)
	assert.Len(t, u1, 2)

	logins, err := s.QueryAuditEvents(ctx, store.AuditFilter{UserID: "u1", EventType: store.EventLogin})
	require.NoError(t, err)
	require.Len(t, logins, 1)
	assert.Equal(t, ev.ID, logins[0].ID)

	limited, err := s.QueryAuditEvents(ctx, store.AuditFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestAuditSameInstantNewestFirst(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	first, err := s.AppendAuditEvent(ctx, store.AuditEventInput{UserID: "u1", EventType: "a"})
	require.NoError(t, err)
	second, err := s.AppendAuditEvent(ctx, store.AuditEventInput{UserID: "u1", EventType: "b"})
	require.NoError(t, err)

	got, err := s.QueryAuditEvents(ctx, store.AuditFilter{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second.ID, got[0].ID)
	assert.Equal(t, first.ID, got[1].ID)
}

func TestAuditDataNumbersKeepTheirType(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	ev, err := s.AppendAuditEvent(ctx, store.AuditEventInput{
		UserID: "u1", EventType: store.EventBatchUpdate,
		Data: map[string]any{"count": 2.0, "nested": map[string]any{"n": 3.0}, "ids": []any{1.0}},
	})
	require.NoError(t, err)

	got, err := s.QueryAuditEvents(ctx, store.AuditFilter{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ev.Data, got[0].Data)
	assert.IsType(t, float64(0), got[0].Data["count"])
	assert.Equal(t, map[string]any{"n": 3.0}, got[0].Data["nested"])
	assert.Equal(t, []any{1.0}, got[0].Data["ids"])
}

func TestAuditRequiresUserAndType(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.AppendAuditEvent(context.Background(), store.AuditEventInput{EventType: "login"})
	assert.Equal(t, store.KindInvalid, store.KindOf(err))
}

func TestClosedStoreFailsWithKind(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Close())

	_, err := s.GetUser(context.Background(), "u1")
	require.Error(t, err)
	assert.NotEqual(t, store.KindNotFound, store.KindOf(err))
}
