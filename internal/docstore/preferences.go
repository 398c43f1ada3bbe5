package docstore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/cockroachdb/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/pysugar/cloudidp/internal/store"
)

func (s *Store) GetPreferences(ctx context.Context, userID string) (store.Preferences, error) {
	const op = "GetPreferences"
	if userID == "" {
		return store.DefaultPreferences(), nil
	}
	snap, err := s.preferences().Doc(userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return store.DefaultPreferences(), nil
	}
	if err != nil {
		return store.DefaultPreferences(), s.fail(ctx, op, err)
	}
	var d preferencesDoc
	if err := snap.DataTo(&d); err != nil {
		return store.DefaultPreferences(), s.fail(ctx, op, err)
	}
	return d.toPreferences(), nil
}

// SavePreferences merges u into the stored document, or into the defaults on
// first save, inside one transaction.
func (s *Store) SavePreferences(ctx context.Context, userID string, u store.PreferencesUpdate) (store.Preferences, error) {
	const op = "SavePreferences"
	if userID == "" {
		return store.DefaultPreferences(), s.fail(ctx, op, store.E(op, store.KindInvalid, errors.New("empty user id")))
	}
	if err := u.Check(); err != nil {
		return store.DefaultPreferences(), s.fail(ctx, op, store.E(op, store.KindInvalid, err))
	}

	ref := s.preferences().Doc(userID)
	var out store.Preferences
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		current := store.DefaultPreferences()
		snap, err := tx.Get(ref)
		switch {
		case status.Code(err) == codes.NotFound:
		case err != nil:
			return err
		default:
			var d preferencesDoc
			if err := snap.DataTo(&d); err != nil {
				return err
			}
			current = d.toPreferences()
		}
		out = u.Apply(current)
		return tx.Set(ref, preferencesData(userID, out))
	})
	if err != nil {
		return store.DefaultPreferences(), s.fail(ctx, op, err)
	}
	return out, nil
}
