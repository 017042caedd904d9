package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashendes/welcome-home/internal/config"
	"github.com/ashendes/welcome-home/internal/models"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	pb, err := NewPebbleStore(filepath.Join(dir, "pebble"))
	require.NoError(t, err)
	sq, err := NewSQLiteStore(filepath.Join(dir, "orders.db"))
	require.NoError(t, err)

	all := map[string]Store{
		"memory": NewMemoryStore(),
		"pebble": pb,
		"sqlite": sq,
	}
	t.Cleanup(func() {
		for _, s := range all {
			s.Close()
		}
	})
	return all
}

func sampleOrder(id, owner string, created time.Time) *models.Order {
	return &models.Order{
		ID:          id,
		ArrivalDate: "2025-06-01",
		Address:     "1 Main St",
		Items: []models.OrderItem{
			{ProductID: 4643, Name: "Organic Bananas", Category: "fresh-produce", Price: models.MustMoney("6.42"), Quantity: 2},
		},
		AddOns: models.AddOnSelection{WarmHome: true},
		Totals: models.Totals{
			Groceries:  models.MustMoney("12.84"),
			AddOns:     models.MustMoney("45"),
			GrandTotal: models.MustMoney("57.84"),
		},
		OwnerID:   owner,
		Status:    models.OrderStatusConfirmed,
		CreatedAt: created,
	}
}

func TestOrderRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			o := sampleOrder("ord-1", "user-1", time.Now().UTC())
			require.NoError(t, s.CreateOrder(ctx, o))

			got, err := s.GetOrder(ctx, "ord-1")
			require.NoError(t, err)
			assert.Equal(t, o.Address, got.Address)
			assert.Equal(t, "57.84", got.Totals.GrandTotal.String())
			require.Len(t, got.Items, 1)
			assert.Equal(t, "6.42", got.Items[0].Price.String())
			assert.True(t, o.CreatedAt.Equal(got.CreatedAt))
			assert.True(t, got.AddOns.WarmHome)
		})
	}
}

func TestDuplicateOrderRejected(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			o := sampleOrder("dup", "", time.Now())
			require.NoError(t, s.CreateOrder(ctx, o))
			assert.ErrorIs(t, s.CreateOrder(ctx, o), ErrDuplicate)
		})
	}
}

func TestGetOrderNotFound(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.GetOrder(context.Background(), "missing")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestListOrdersByOwnerNewestFirst(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.CreateOrder(ctx, sampleOrder("a", "owner", base)))
			require.NoError(t, s.CreateOrder(ctx, sampleOrder("c", "owner", base.Add(2*time.Hour))))
			require.NoError(t, s.CreateOrder(ctx, sampleOrder("b", "owner", base.Add(time.Hour))))
			require.NoError(t, s.CreateOrder(ctx, sampleOrder("x", "someone-else", base.Add(3*time.Hour))))
			require.NoError(t, s.CreateOrder(ctx, sampleOrder("anon", "", base.Add(4*time.Hour))))

			list, err := s.ListOrdersByOwner(ctx, "owner")
			require.NoError(t, err)
			ids := make([]string, 0, len(list))
			for _, o := range list {
				ids = append(ids, o.ID)
			}
			assert.Equal(t, []string{"c", "b", "a"}, ids)

			empty, err := s.ListOrdersByOwner(ctx, "nobody")
			require.NoError(t, err)
			assert.NotNil(t, empty)
			assert.Empty(t, empty)
		})
	}
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			u := &models.User{ID: "u1", Email: "ann@example.com", Name: "Ann", PasswordHash: "hash", CreatedAt: time.Now()}
			require.NoError(t, s.CreateUser(ctx, u))

			byEmail, err := s.GetUserByEmail(ctx, "ann@example.com")
			require.NoError(t, err)
			assert.Equal(t, "u1", byEmail.ID)
			assert.Equal(t, "hash", byEmail.PasswordHash)

			byID, err := s.GetUserByID(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, "Ann", byID.Name)

			again := &models.User{ID: "u2", Email: "ann@example.com"}
			assert.ErrorIs(t, s.CreateUser(ctx, again), ErrDuplicate)

			_, err = s.GetUserByEmail(ctx, "bob@example.com")
			assert.ErrorIs(t, err, ErrNotFound)
			_, err = s.GetUserByID(ctx, "u2")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStoredOrderIsIsolatedFromCaller(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	o := sampleOrder("iso", "", time.Now())
	require.NoError(t, s.CreateOrder(ctx, o))
	o.Items[0].Quantity = 99

	got, err := s.GetOrder(ctx, "iso")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Items[0].Quantity)
}

func TestOpen(t *testing.T) {
	s, err := Open(config.StoreMemory, "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	_, err = Open("mongo", "")
	assert.Error(t, err)
}
