// Package docstore is the Firestore backend for users, preferences and audit
// events. It also supports atomic batch user updates and live user watches.
package docstore

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/cockroachdb/errors"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/pysugar/cloudidp/internal/store"
)

const (
	usersCollection       = "users"
	preferencesCollection = "user_preferences"
	auditCollection       = "audit_log"
)

// DefaultCredentialsFile is picked up from the working directory when no
// other credentials are configured.
const DefaultCredentialsFile = "firestore-key.json"

type Config struct {
	ProjectID string
	// CredentialsJSON is a service-account key, as embedded in the secrets file.
	CredentialsJSON []byte
	CredentialsFile string
}

type Store struct {
	client *firestore.Client
	log    *slog.Logger
}

var (
	_ store.AccountStore     = (*Store)(nil)
	_ store.UserBatchUpdater = (*Store)(nil)
	_ store.UserWatcher      = (*Store)(nil)
)

type options struct {
	log        *slog.Logger
	clientOpts []option.ClientOption
	probe      bool
}

type Option func(*options)

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithClientOptions appends raw client options, e.g. option.WithoutAuthentication
// for the emulator.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(o *options) { o.clientOpts = append(o.clientOpts, opts...) }
}

// WithoutProbe skips the read Open issues to check connectivity.
func WithoutProbe() Option {
	return func(o *options) { o.probe = false }
}

// Open builds a Firestore client through the Firebase app. Credentials come
// from cfg.CredentialsJSON, then cfg.CredentialsFile, then
// DefaultCredentialsFile if present, then application default credentials.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	const op = "docstore.Open"
	o := options{log: slog.Default(), probe: true}
	for _, fn := range opts {
		fn(&o)
	}

	var clientOpts []option.ClientOption
	switch {
	case len(cfg.CredentialsJSON) > 0:
		clientOpts = append(clientOpts, option.WithCredentialsJSON(cfg.CredentialsJSON))
		if cfg.ProjectID == "" {
			cfg.ProjectID = projectIDFromKey(cfg.CredentialsJSON)
		}
	case cfg.CredentialsFile != "":
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	default:
		if _, err := os.Stat(DefaultCredentialsFile); err == nil {
			clientOpts = append(clientOpts, option.WithCredentialsFile(DefaultCredentialsFile))
		}
	}
	clientOpts = append(clientOpts, o.clientOpts...)

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, clientOpts...)
	if err != nil {
		return nil, store.E(op, store.KindUnavailable, errors.Wrap(err, "error initializing app"))
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, store.E(op, store.KindUnavailable, errors.Wrap(err, "error getting Firestore client"))
	}

	s := New(client, o.log)
	if o.probe {
		_, err := client.Collection(usersCollection).Limit(1).Documents(ctx).Next()
		if err != nil && !errors.Is(err, iterator.Done) {
			_ = client.Close()
			return nil, store.E(op, store.KindUnavailable, errors.Wrap(err, "probe users collection"))
		}
	}
	o.log.Info("document store ready", "project_id", cfg.ProjectID)
	return s, nil
}

// New wraps an existing client.
func New(client *firestore.Client, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{client: client, log: log}
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) users() *firestore.CollectionRef {
	return s.client.Collection(usersCollection)
}

func (s *Store) preferences() *firestore.CollectionRef {
	return s.client.Collection(preferencesCollection)
}

func (s *Store) audit() *firestore.CollectionRef {
	return s.client.Collection(auditCollection)
}

func projectIDFromKey(key []byte) string {
	var sa struct {
		ProjectID string `json:"project_id"`
	}
	if err := json.Unmarshal(key, &sa); err != nil {
		return ""
	}
	return sa.ProjectID
}

func classify(err error) store.Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return store.KindUnavailable
	}
	switch status.Code(err) {
	case codes.NotFound:
		return store.KindNotFound
	case codes.AlreadyExists, codes.Aborted:
		return store.KindConflict
	case codes.InvalidArgument:
		return store.KindInvalid
	case codes.Unavailable, codes.DeadlineExceeded, codes.Unauthenticated,
		codes.PermissionDenied, codes.ResourceExhausted:
		return store.KindUnavailable
	}
	return store.KindUnknown
}

func (s *Store) fail(ctx context.Context, op string, err error) error {
	var se *store.Error
	if !errors.As(err, &se) {
		se = &store.Error{Kind: classify(err), Op: op, Err: err}
	}
	s.log.WarnContext(ctx, "store operation failed",
		"op", op, "kind", se.Kind.String(), "error", err.Error())
	return se
}
