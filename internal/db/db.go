// Package db is the relational backend: users, preferences, audit events and
// the provisioning records on postgresql or sqlite through gorm.
package db

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pysugar/cloudidp/internal/db/models"
	"github.com/pysugar/cloudidp/internal/store"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgresql"
)

// ParseDialect accepts the db_type values of the config file.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "postgresql", "postgres", "pg":
		return DialectPostgres, nil
	}
	return "", fmt.Errorf("unsupported db_type %q", s)
}

// Store implements store.AccountStore and store.RecordStore.
type Store struct {
	db      *gorm.DB
	dialect Dialect
	now     func() time.Time
	log     *slog.Logger
}

var (
	_ store.AccountStore = (*Store)(nil)
	_ store.RecordStore  = (*Store)(nil)
)

type options struct {
	now      func() time.Time
	log      *slog.Logger
	logLevel logger.LogLevel
}

type Option func(*options)

// WithClock replaces time.Now for every timestamp the store writes.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithSQLLogging makes gorm log every statement at debug level.
func WithSQLLogging() Option {
	return func(o *options) { o.logLevel = logger.Info }
}

// SQLiteDSN turns a file path into a DSN with a busy timeout so concurrent
// writers wait instead of failing.
func SQLiteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

// Open connects, pings and migrates the schema. Failures are KindUnavailable.
func Open(ctx context.Context, dialect Dialect, dsn string, opts ...Option) (*Store, error) {
	const op = "db.Open"
	o := options{now: time.Now, log: slog.Default(), logLevel: logger.Warn}
	for _, fn := range opts {
		fn(&o)
	}

	var dialector gorm.Dialector
	switch dialect {
	case DialectSQLite:
		dialector = sqlite.Open(dsn)
	case DialectPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, store.E(op, store.KindInvalid, errors.Newf("unsupported dialect %q", dialect))
	}

	now := func() time.Time { return o.now().UTC() }
	gdb, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		NowFunc:        now,
		Logger:         newGormLogger(o.log, o.logLevel),
	})
	if err != nil {
		return nil, store.E(op, store.KindUnavailable, errors.Wrapf(err, "open %s", dialect))
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, store.E(op, store.KindUnavailable, err)
	}
	if dialect == DialectSQLite {
		// Writes serialize on one connection; a second one would hit SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, store.E(op, store.KindUnavailable, errors.Wrap(err, "ping"))
	}
	if err := gdb.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		_ = sqlDB.Close()
		return nil, store.E(op, store.KindUnavailable, errors.Wrap(err, "migrate"))
	}

	o.log.Info("relational store ready", "dialect", string(dialect))
	return &Store{db: gdb, dialect: dialect, now: now, log: o.log}, nil
}

func (s *Store) Dialect() Dialect { return s.dialect }

// DB exposes the gorm handle for tests and maintenance tasks.
func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// tx runs fn in its own transaction.
func (s *Store) tx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

// fail logs err and converts it to a *store.Error for op.
func (s *Store) fail(ctx context.Context, op string, err error) error {
	var se *store.Error
	if !errors.As(err, &se) {
		se = &store.Error{Kind: classify(err), Op: op, Err: err}
	} else if se.Op == "" {
		se = &store.Error{Kind: se.Kind, Op: op, Err: se.Err}
	}
	s.log.WarnContext(ctx, "store operation failed",
		"op", op, "kind", se.Kind.String(), "error", err.Error())
	return se
}
