// Package store persists orders and users as JSON documents.
//
// Every backend writes one order document atomically and never updates it
// afterwards.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/ashendes/welcome-home/internal/config"
	"github.com/ashendes/welcome-home/internal/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)

// OrderStore persists arrival orders.
type OrderStore interface {
	CreateOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	// ListOrdersByOwner returns the owner's orders, newest first.
	ListOrdersByOwner(ctx context.Context, ownerID string) ([]*models.Order, error)
}

// UserStore persists accounts. Emails are unique.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Store is a complete backend.
type Store interface {
	OrderStore
	UserStore
	Close() error
}

// Open returns the backend named by driver. path is ignored for memory.
func Open(driver, path string) (Store, error) {
	switch driver {
	case config.StoreMemory:
		return NewMemoryStore(), nil
	case config.StorePebble:
		return NewPebbleStore(path)
	case config.StoreSQLite:
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

func encodeOrder(o *models.Order) ([]byte, error) { return json.Marshal(o) }

func decodeOrder(b []byte) (*models.Order, error) {
	var o models.Order
	if err := json.Unmarshal(b, &o); err != nil {
		return nil, fmt.Errorf("decode order: %w", err)
	}
	return &o, nil
}

func encodeUser(u *models.User) ([]byte, error) { return json.Marshal(u) }

func decodeUser(b []byte) (*models.User, error) {
	var u models.User
	if err := json.Unmarshal(b, &u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &u, nil
}

// sortNewestFirst orders by creation time, then id, both descending.
func sortNewestFirst(orders []*models.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID > orders[j].ID
	})
}
