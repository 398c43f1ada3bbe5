package docstore

import (
	"context"
	"slices"
	"strings"

	"cloud.google.com/go/firestore"
	"github.com/cockroachdb/errors"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/pysugar/cloudidp/internal/store"
)

// UpsertUser reads and writes the user document in one transaction.
// last_login is a server timestamp, so it never moves backwards.
func (s *Store) UpsertUser(ctx context.Context, p store.UserProfile) (store.User, error) {
	const op = "UpsertUser"
	if err := store.Validate(op, p); err != nil {
		return store.User{}, s.fail(ctx, op, err)
	}

	ref := s.users().Doc(p.ID)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		_, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return tx.Set(ref, newUserData(p))
		}
		if err != nil {
			return err
		}
		return tx.Update(ref, profileUpdates(p))
	})
	if err != nil {
		return store.User{}, s.fail(ctx, op, err)
	}
	return s.GetUser(ctx, p.ID)
}

func (s *Store) GetUser(ctx context.Context, id string) (store.User, error) {
	const op = "GetUser"
	if id == "" {
		return store.User{}, s.fail(ctx, op, store.E(op, store.KindInvalid, errors.New("empty user id")))
	}
	snap, err := s.users().Doc(id).Get(ctx)
	if err != nil {
		return store.User{}, s.fail(ctx, op, err)
	}
	u, err := userFromSnapshot(snap)
	if err != nil {
		return store.User{}, s.fail(ctx, op, err)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (store.User, error) {
	const op = "GetUserByEmail"
	iter := s.users().Where("email", "==", email).Limit(1).Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return store.User{}, s.fail(ctx, op, store.NotFoundf(op, "user with email %s", email))
	}
	if err != nil {
		return store.User{}, s.fail(ctx, op, err)
	}
	u, err := userFromSnapshot(snap)
	if err != nil {
		return store.User{}, s.fail(ctx, op, err)
	}
	return u, nil
}

func (s *Store) SetUserRole(ctx context.Context, id string, role store.Role) error {
	const op = "SetUserRole"
	if !role.Valid() {
		return s.fail(ctx, op, store.E(op, store.KindInvalid, errors.Newf("unknown role %q", role)))
	}
	return s.update(ctx, op, id, []firestore.Update{
		{Path: "role", Value: string(role)},
		{Path: "updated_at", Value: firestore.ServerTimestamp},
	})
}

func (s *Store) SetUserActive(ctx context.Context, id string, active bool) error {
	return s.update(ctx, "SetUserActive", id, []firestore.Update{
		{Path: "is_active", Value: active},
		{Path: "updated_at", Value: firestore.ServerTimestamp},
	})
}

// update fails with NotFound when the document does not exist.
func (s *Store) update(ctx context.Context, op, id string, ups []firestore.Update) error {
	if id == "" {
		return s.fail(ctx, op, store.E(op, store.KindInvalid, errors.New("empty user id")))
	}
	if _, err := s.users().Doc(id).Update(ctx, ups); err != nil {
		return s.fail(ctx, op, err)
	}
	return nil
}

// ListUsers sorts by email on the client so the query needs no composite index.
func (s *Store) ListUsers(ctx context.Context, activeOnly bool) ([]store.User, error) {
	q := s.users().Query
	if activeOnly {
		q = q.Where("is_active", "==", true)
	}
	users, err := s.collectUsers(ctx, q)
	if err != nil {
		return []store.User{}, s.fail(ctx, "ListUsers", err)
	}
	slices.SortFunc(users, func(a, b store.User) int { return strings.Compare(a.Email, b.Email) })
	return users, nil
}

func (s *Store) UserStats(ctx context.Context) (store.UserStats, error) {
	users, err := s.collectUsers(ctx, s.users().Query)
	if err != nil {
		return store.UserStats{ByRole: map[store.Role]int{}}, s.fail(ctx, "UserStats", err)
	}
	return store.CountUsers(users), nil
}

func (s *Store) collectUsers(ctx context.Context, q firestore.Query) ([]store.User, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	users := []store.User{}
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return users, nil
		}
		if err != nil {
			return nil, err
		}
		u, err := userFromSnapshot(snap)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
}

// BatchUpdateUsers applies every update in one transaction. A missing user
// aborts the whole batch with NotFound.
func (s *Store) BatchUpdateUsers(ctx context.Context, updates []store.UserUpdate) error {
	const op = "BatchUpdateUsers"
	seen := make(map[string]bool, len(updates))
	for i, u := range updates {
		if seen[u.ID] {
			return s.fail(ctx, op, store.E(op, store.KindInvalid, errors.Newf("update %d: duplicate user id %s", i, u.ID)))
		}
		seen[u.ID] = true
		if u.ID == "" {
			return s.fail(ctx, op, store.E(op, store.KindInvalid, errors.Newf("update %d: empty user id", i)))
		}
		if u.Fields.Empty() {
			return s.fail(ctx, op, store.E(op, store.KindInvalid, errors.Newf("update %d: no fields", i)))
		}
		if err := u.Fields.Check(); err != nil {
			return s.fail(ctx, op, store.E(op, store.KindInvalid, errors.Wrapf(err, "update %d", i)))
		}
	}
	if len(updates) == 0 {
		return nil
	}

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		refs := make([]*firestore.DocumentRef, len(updates))
		for i, u := range updates {
			refs[i] = s.users().Doc(u.ID)
		}
		snaps, err := tx.GetAll(refs)
		if err != nil {
			return err
		}
		for i, snap := range snaps {
			if !snap.Exists() {
				return store.NotFoundf(op, "user %s", updates[i].ID)
			}
		}
		for i, u := range updates {
			if err := tx.Update(refs[i], fieldUpdates(u.Fields)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return s.fail(ctx, op, err)
	}
	return nil
}

// WatchUser blocks, calling fn for every snapshot of the user document,
// until ctx is cancelled.
func (s *Store) WatchUser(ctx context.Context, id string, fn func(store.User, error)) error {
	const op = "WatchUser"
	iter := s.users().Doc(id).Snapshots(ctx)
	defer iter.Stop()

	for {
		snap, err := iter.Next()
		if err != nil {
			if ctx.Err() != nil || status.Code(err) == codes.Canceled {
				return nil
			}
			return s.fail(ctx, op, err)
		}
		if !snap.Exists() {
			fn(store.User{}, store.NotFoundf(op, "user %s", id))
			continue
		}
		fn(userFromSnapshot(snap))
	}
}
