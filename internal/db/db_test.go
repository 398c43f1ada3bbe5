package db

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pysugar/cloudidp/internal/store"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

var testEpoch = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

// newTestStore opens a private in-memory sqlite database.
func newTestStore(t *testing.T) (*Store, *fakeClock) {
	t.Helper()
	clk := &fakeClock{t: testEpoch}
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	s, err := Open(context.Background(), DialectSQLite, dsn,
		WithClock(clk.Now),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, clk
}

func assertSameTime(t *testing.T, want, got time.Time) {
	t.Helper()
	assert.True(t, want.Equal(got), "want %s, got %s", want, got)
}

func TestParseDialect(t *testing.T) {
	for in, want := range map[string]Dialect{
		"":           DialectSQLite,
		"SQLite":     DialectSQLite,
		"postgresql": DialectPostgres,
		"postgres":   DialectPostgres,
	} {
		got, err := ParseDialect(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseDialect("mysql")
	assert.Error(t, err)
}

func TestOpenUnsupportedDialect(t *testing.T) {
	_, err := Open(context.Background(), Dialect("oracle"), "")
	require.Error(t, err)
	assert.Equal(t, store.KindInvalid, store.KindOf(err))
}

func TestOpenUnreachablePostgres(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err := Open(ctx, DialectPostgres,
		"host=127.0.0.1 port=1 user=x dbname=x sslmode=disable connect_timeout=1",
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.Error(t, err)
	assert.Equal(t, store.KindUnavailable, store.KindOf(err))
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "users.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", SQLiteDSN("users.db"))
	assert.Equal(t, "file:x?mode=memory", SQLiteDSN("file:x?mode=memory"))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, store.KindConflict, classify(fmt.Errorf("UNIQUE constraint failed: users.email")))
	assert.Equal(t, store.KindUnavailable, classify(context.DeadlineExceeded))
	assert.Equal(t, store.KindUnknown, classify(fmt.Errorf("boom")))
}
