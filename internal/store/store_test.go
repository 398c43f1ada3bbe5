package store

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/guregu/null/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKindMatching(t *testing.T) {
	err := E("GetUser", KindNotFound, errors.New("no row"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, IsNotFound(errors.Wrap(err, "handler")))
	assert.Equal(t, "GetUser: not found: no row", err.Error())

	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" FinOps ")
	require.NoError(t, err)
	assert.Equal(t, RoleFinOps, r)

	_, err = ParseRole("superuser")
	assert.Error(t, err)
	assert.Len(t, Roles(), 6)
}

func TestUserFieldsApply(t *testing.T) {
	u := User{ID: "u1", Email: "a@example.com", Name: "A", Role: RoleViewer, IsActive: true}
	f := UserFields{
		Name:     null.StringFrom("Alice"),
		Role:     null.StringFrom("developer"),
		IsActive: null.BoolFrom(false),
	}
	require.NoError(t, f.Check())
	f.ApplyTo(&u)

	assert.Equal(t, "Alice", u.Name)
	assert.Equal(t, "a@example.com", u.Email)
	assert.Equal(t, RoleDeveloper, u.Role)
	assert.False(t, u.IsActive)
	assert.False(t, f.Empty())
	assert.True(t, UserFields{}.Empty())
}

func TestUserFieldsCheck(t *testing.T) {
	assert.Error(t, UserFields{Role: null.StringFrom("root")}.Check())
	assert.Error(t, UserFields{Email: null.StringFrom("not-an-email")}.Check())
	assert.NoError(t, UserFields{Email: null.StringFrom("b@example.com")}.Check())
}

func TestUserProfileKeepsExistingOnEmpty(t *testing.T) {
	u := User{Email: "a@example.com", JobTitle: "Engineer", Department: "Platform"}
	UserProfile{ID: "u1", Email: "a@example.com", JobTitle: "Lead"}.ApplyTo(&u)

	assert.Equal(t, "Lead", u.JobTitle)
	assert.Equal(t, "Platform", u.Department)
}

func TestPreferencesUpdateApply(t *testing.T) {
	got := PreferencesUpdate{Theme: null.StringFrom("dark")}.Apply(DefaultPreferences())
	assert.Equal(t, Preferences{Theme: "dark", DefaultCloud: "aws", NotificationsEnabled: true, DashboardLayout: "default"}, got)

	got = PreferencesUpdate{NotificationsEnabled: null.BoolFrom(false), DefaultCloud: null.StringFrom("Azure")}.Apply(got)
	assert.Equal(t, "dark", got.Theme)
	assert.Equal(t, "azure", got.DefaultCloud)
	assert.False(t, got.NotificationsEnabled)

	assert.Error(t, PreferencesUpdate{DefaultCloud: null.StringFrom("oracle")}.Check())
}

func TestCountUsers(t *testing.T) {
	st := CountUsers([]User{
		{Role: RoleAdmin, IsActive: true},
		{Role: RoleViewer, IsActive: true},
		{Role: RoleViewer, IsActive: false},
	})
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 2, st.Active)
	assert.Equal(t, 1, st.Inactive)
	assert.Equal(t, map[Role]int{RoleAdmin: 1, RoleViewer: 2}, st.ByRole)
}

func TestValidate(t *testing.T) {
	err := Validate("UpsertUser", UserProfile{ID: "u1", Email: "nope"})
	require.Error(t, err)
	assert.Equal(t, KindInvalid, KindOf(err))

	assert.NoError(t, Validate("UpsertUser", UserProfile{ID: "u1", Email: "a@example.com"}))
	assert.Error(t, Validate("RecordCost", CostInput{AccountID: "123", Service: "EC2"}))
}

func TestAuditNormalize(t *testing.T) {
	in := AuditEventInput{UserID: "u1", EventType: EventLogin}.Normalize()
	assert.Equal(t, UnknownClient, in.IPAddress)
	assert.Equal(t, UnknownClient, in.UserAgent)
	assert.NotNil(t, in.Data)

	assert.Equal(t, 100, AuditFilter{}.EffectiveLimit())
	assert.Equal(t, 5, AuditFilter{Limit: 5}.EffectiveLimit())
}

func TestUnavailableStore(t *testing.T) {
	ctx := context.Background()
	cause := errors.New("dial tcp: connection refused")
	s := Unavailable(cause)

	users, err := s.ListUsers(ctx, false)
	require.Error(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
	assert.True(t, errors.Is(err, ErrUnavailable))

	prefs, err := s.GetPreferences(ctx, "u1")
	assert.Equal(t, DefaultPreferences(), prefs)
	assert.Equal(t, KindUnavailable, KindOf(err))

	_, err = s.CreateBlueprint(ctx, BlueprintInput{Name: "x"})
	assert.ErrorIs(t, err, cause)
	assert.NoError(t, s.Close())
}
