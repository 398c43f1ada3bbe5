// Package manager owns the process-wide data access handles. Backends open on
// first use; when that fails the handle keeps serving a degraded store whose
// every call reports KindUnavailable.
package manager

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/pysugar/cloudidp/internal/config"
	"github.com/pysugar/cloudidp/internal/db"
	"github.com/pysugar/cloudidp/internal/docstore"
	"github.com/pysugar/cloudidp/internal/store"
)

// Opener builds a backend. Tests replace the defaults to avoid real I/O.
type (
	AccountOpener func(ctx context.Context) (store.AccountStore, error)
	RecordOpener  func(ctx context.Context) (store.RecordStore, error)
)

type Manager struct {
	cfg config.Config
	log *slog.Logger
	now func() time.Time

	openAccounts AccountOpener
	openRecords  RecordOpener

	mu      sync.Mutex
	sqlOnce sync.Once
	sql     *db.Store
	sqlErr  error

	accountsOnce sync.Once
	accounts     store.AccountStore

	recordsOnce sync.Once
	records     store.RecordStore

	closed bool
}

type Option func(*Manager)

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithClock is passed to the relational backend.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithAccountOpener(fn AccountOpener) Option {
	return func(m *Manager) { m.openAccounts = fn }
}

func WithRecordOpener(fn RecordOpener) Option {
	return func(m *Manager) { m.openRecords = fn }
}

// New returns an unopened manager. Nothing touches the network until
// Accounts or Records is called.
func New(cfg config.Config, opts ...Option) *Manager {
	m := &Manager{cfg: cfg, log: slog.Default(), now: time.Now}
	for _, fn := range opts {
		fn(m)
	}
	if m.openAccounts == nil {
		m.openAccounts = m.defaultAccounts
	}
	if m.openRecords == nil {
		m.openRecords = m.defaultRecords
	}
	return m
}

// Accounts returns the user/preference/audit store, opening it on first call.
func (m *Manager) Accounts(ctx context.Context) store.AccountStore {
	m.accountsOnce.Do(func() {
		s, err := m.openAccounts(ctx)
		if err != nil {
			m.log.WarnContext(ctx, "account backend unavailable, serving degraded store",
				"backend", m.cfg.Backend, "error", err.Error())
			s = store.Unavailable(err)
		}
		m.mu.Lock()
		m.accounts = s
		m.mu.Unlock()
	})
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts
}

// Records returns the blueprint/deployment/operation store on the relational
// backend, opening it on first call.
func (m *Manager) Records(ctx context.Context) store.RecordStore {
	m.recordsOnce.Do(func() {
		s, err := m.openRecords(ctx)
		if err != nil {
			m.log.WarnContext(ctx, "record backend unavailable, serving degraded store", "error", err.Error())
			s = store.Unavailable(err)
		}
		m.mu.Lock()
		m.records = s
		m.mu.Unlock()
	})
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records
}

// Ready opens both stores and reports the first initialization error.
func (m *Manager) Ready(ctx context.Context) error {
	for _, s := range []any{m.Accounts(ctx), m.Records(ctx)} {
		if u, ok := s.(*store.UnavailableStore); ok {
			return u.Cause()
		}
	}
	return nil
}

func (m *Manager) defaultAccounts(ctx context.Context) (store.AccountStore, error) {
	if m.cfg.Backend != config.BackendFirestore {
		return m.sqlStore(ctx)
	}
	key, err := m.cfg.GCP.CredentialsJSON()
	if err != nil {
		return nil, store.E("manager.Accounts", store.KindInvalid, err)
	}
	return docstore.Open(ctx, docstore.Config{
		ProjectID:       m.cfg.GCP.ProjectID,
		CredentialsJSON: key,
		CredentialsFile: m.cfg.GCP.CredentialsFile,
	}, docstore.WithLogger(m.log))
}

func (m *Manager) defaultRecords(ctx context.Context) (store.RecordStore, error) {
	return m.sqlStore(ctx)
}

// sqlStore opens the relational database once; accounts and records share it
// when both live there.
func (m *Manager) sqlStore(ctx context.Context) (*db.Store, error) {
	m.sqlOnce.Do(func() {
		dialect, err := db.ParseDialect(m.cfg.Database.Type)
		if err != nil {
			m.sqlErr = store.E("manager.Open", store.KindInvalid, err)
			return
		}
		dsn := m.cfg.Database.DSN()
		if dialect == db.DialectSQLite {
			dsn = db.SQLiteDSN(dsn)
		}
		m.sql, m.sqlErr = db.Open(ctx, dialect, dsn, db.WithClock(m.now), db.WithLogger(m.log))
	})
	return m.sql, m.sqlErr
}

// Close releases every opened backend. The shared SQL store is closed once.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true

	var errs []error
	seen := map[any]bool{}
	for _, c := range []interface{ Close() error }{m.accounts, m.records} {
		if c == nil || seen[c] {
			continue
		}
		seen[c] = true
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if m.sql != nil && !seen[any(m.sql)] {
		if err := m.sql.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
