package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"

	"github.com/ashendes/welcome-home/internal/models"
)

// Key layout:
//
//	order/<id>                          order document
//	owner/<ownerID>/<nanos>/<id>        empty, newest-first index
//	user/<id>                           user document
//	email/<email>                       user id
const (
	orderPrefix = "order/"
	ownerPrefix = "owner/"
	userPrefix  = "user/"
	emailPrefix = "email/"
)

// PebbleStore is an embedded LSM-backed document store.
type PebbleStore struct {
	db *pebble.DB
	// serialises read-check-write sequences
	mu sync.Mutex
}

func NewPebbleStore(dir string) (*PebbleStore, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble at %s: %w", dir, err)
	}
	return &PebbleStore{db: db}, nil
}

func (s *PebbleStore) Close() error { return s.db.Close() }

func ownerKey(o *models.Order) []byte {
	return []byte(fmt.Sprintf("%s%s/%020d/%s", ownerPrefix, o.OwnerID, o.CreatedAt.UnixNano(), o.ID))
}

func (s *PebbleStore) get(key []byte) ([]byte, error) {
	val, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return append([]byte(nil), val...), nil
}

func (s *PebbleStore) has(key []byte) (bool, error) {
	_, err := s.get(key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *PebbleStore) CreateOrder(ctx context.Context, o *models.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc, err := encodeOrder(o)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := []byte(orderPrefix + o.ID)
	exists, err := s.has(key)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicate
	}

	b := s.db.NewBatch()
	defer b.Close()
	if err := b.Set(key, doc, nil); err != nil {
		return err
	}
	if o.OwnerID != "" {
		if err := b.Set(ownerKey(o), nil, nil); err != nil {
			return err
		}
	}
	return b.Commit(pebble.Sync)
}

func (s *PebbleStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	doc, err := s.get([]byte(orderPrefix + id))
	if err != nil {
		return nil, err
	}
	return decodeOrder(doc)
}

func (s *PebbleStore) ListOrdersByOwner(ctx context.Context, ownerID string) ([]*models.Order, error) {
	prefix := []byte(ownerPrefix + ownerID + "/")
	upper := append(append([]byte(nil), prefix...), 0xff)

	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: upper})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	out := make([]*models.Order, 0)
	for iter.Last(); iter.Valid(); iter.Prev() {
		key := iter.Key()
		id := string(key[lastSlash(key)+1:])
		o, err := s.GetOrder(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return out, nil
}

func lastSlash(b []byte) int {
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] == '/' {
			return i
		}
	}
	return -1
}

func (s *PebbleStore) CreateUser(ctx context.Context, u *models.User) error {
	doc, err := encodeUser(u)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	emailKey := []byte(emailPrefix + u.Email)
	userKey := []byte(userPrefix + u.ID)
	for _, k := range [][]byte{emailKey, userKey} {
		exists, err := s.has(k)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicate
		}
	}

	b := s.db.NewBatch()
	defer b.Close()
	if err := b.Set(userKey, doc, nil); err != nil {
		return err
	}
	if err := b.Set(emailKey, []byte(u.ID), nil); err != nil {
		return err
	}
	return b.Commit(pebble.Sync)
}

func (s *PebbleStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	doc, err := s.get([]byte(userPrefix + id))
	if err != nil {
		return nil, err
	}
	return decodeUser(doc)
}

func (s *PebbleStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	id, err := s.get([]byte(emailPrefix + email))
	if err != nil {
		return nil, err
	}
	return s.GetUserByID(ctx, string(id))
}
