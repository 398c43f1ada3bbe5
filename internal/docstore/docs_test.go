package docstore

import (
	"context"
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/cockroachdb/errors"
	"github.com/guregu/null/v5"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/pysugar/cloudidp/internal/store"
)

func paths(ups []firestore.Update) map[string]any {
	m := make(map[string]any, len(ups))
	for _, u := range ups {
		m[u.Path] = u.Value
	}
	return m
}

func TestNewUserData(t *testing.T) {
	d := newUserData(store.UserProfile{ID: "u1", Email: "a@example.com", Name: "A"})

	assert.Equal(t, "u1", d["id"])
	assert.Equal(t, "viewer", d["role"])
	assert.Equal(t, true, d["is_active"])
	assert.Equal(t, firestore.ServerTimestamp, d["created_at"])
	assert.Equal(t, firestore.ServerTimestamp, d["last_login"])
}

func TestProfileUpdatesSkipEmptyFields(t *testing.T) {
	got := paths(profileUpdates(store.UserProfile{ID: "u1", Email: "a@example.com", JobTitle: "SRE"}))

	assert.Equal(t, "a@example.com", got["email"])
	assert.Equal(t, "SRE", got["job_title"])
	assert.NotContains(t, got, "department")
	assert.NotContains(t, got, "role")
	assert.Equal(t, firestore.ServerTimestamp, got["last_login"])
}

func TestFieldUpdates(t *testing.T) {
	got := paths(fieldUpdates(store.UserFields{
		Role:       null.StringFrom("Security"),
		IsActive:   null.BoolFrom(false),
		Department: null.StringFrom(""),
	}))

	assert.Equal(t, "security", got["role"])
	assert.Equal(t, false, got["is_active"])
	assert.Equal(t, "", got["department"])
	assert.NotContains(t, got, "email")
	assert.Equal(t, firestore.ServerTimestamp, got["updated_at"])
}

func TestPreferencesData(t *testing.T) {
	d := preferencesData("u1", store.DefaultPreferences())
	assert.Equal(t, "u1", d["user_id"])
	assert.Equal(t, "light", d["theme"])
	assert.Equal(t, true, d["notifications_enabled"])
}

func TestClassify(t *testing.T) {
	assert.Equal(t, store.KindNotFound, classify(status.Error(codes.NotFound, "no doc")))
	assert.Equal(t, store.KindNotFound, classify(errors.Wrap(status.Error(codes.NotFound, "no doc"), "get")))
	assert.Equal(t, store.KindUnavailable, classify(status.Error(codes.Unavailable, "down")))
	assert.Equal(t, store.KindUnavailable, classify(context.DeadlineExceeded))
	assert.Equal(t, store.KindConflict, classify(status.Error(codes.AlreadyExists, "dup")))
	assert.Equal(t, store.KindUnknown, classify(errors.New("boom")))
}

func TestProjectIDFromKey(t *testing.T) {
	assert.Equal(t, "acme-prod", projectIDFromKey([]byte(`{"type":"service_account","project_id":"acme-prod"}`)))
	assert.Equal(t, "", projectIDFromKey([]byte(`not json`)))
}
