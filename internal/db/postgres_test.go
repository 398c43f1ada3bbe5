package db

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/guregu/null/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pysugar/cloudidp/internal/store"
)

// newPostgresStore starts a throwaway postgres container. Set
// CLOUDIDP_PG_TESTS=1 to run; it needs a docker daemon.
func newPostgresStore(t *testing.T) (*Store, *fakeClock) {
	t.Helper()
	if os.Getenv("CLOUDIDP_PG_TESTS") != "1" {
		t.Skip("set CLOUDIDP_PG_TESTS=1 to run postgres integration tests")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15.3-alpine",
		postgres.WithDatabase("cloudidp"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	clk := &fakeClock{t: testEpoch}
	s, err := Open(ctx, DialectPostgres, dsn,
		WithClock(clk.Now),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, clk
}

func TestPostgresAccountFlow(t *testing.T) {
	s, clk := newPostgresStore(t)
	ctx := context.Background()

	_, err := s.UpsertUser(ctx, store.UserProfile{ID: "u1", Email: "a@example.com"})
	require.NoError(t, err)
	_, err = s.UpsertUser(ctx, store.UserProfile{ID: "u2", Email: "a@example.com"})
	assert.True(t, store.IsConflict(err), "got %v", err)

	require.NoError(t, s.SetUserRole(ctx, "u1", store.RoleSecurity))
	assert.True(t, store.IsNotFound(s.SetUserActive(ctx, "ghost", false)))

	_, err = s.SavePreferences(ctx, "u1", store.PreferencesUpdate{Theme: null.StringFrom("dark")})
	require.NoError(t, err)
	p, err := s.GetPreferences(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "dark", p.Theme)
	assert.True(t, p.NotificationsEnabled)

	_, err = s.AppendAuditEvent(ctx, store.AuditEventInput{UserID: "u1", EventType: store.EventLogin})
	require.NoError(t, err)
	clk.Advance(time.Second)
	_, err = s.AppendAuditEvent(ctx, store.AuditEventInput{UserID: "u1", EventType: store.EventLogout})
	require.NoError(t, err)

	events, err := s.QueryAuditEvents(ctx, store.AuditFilter{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, store.EventLogout, events[0].EventType)

	st, err := s.UserStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.ByRole[store.RoleSecurity])
}

func TestPostgresBlueprintConflict(t *testing.T) {
	s, _ := newPostgresStore(t)
	ctx := context.Background()

	_, err := s.CreateBlueprint(ctx, store.BlueprintInput{Name: "web", TemplateData: map[string]any{"a": 1.0}})
	require.NoError(t, err)
	_, err = s.CreateBlueprint(ctx, store.BlueprintInput{Name: "web", TemplateData: map[string]any{}})
	assert.True(t, store.IsConflict(err), "got %v", err)
}
