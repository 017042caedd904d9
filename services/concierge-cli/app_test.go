package main

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ashendes/welcome-home/internal/api"
	"github.com/ashendes/welcome-home/internal/auth"
	"github.com/ashendes/welcome-home/internal/client"
	"github.com/ashendes/welcome-home/internal/models"
	"github.com/ashendes/welcome-home/internal/orders"
	"github.com/ashendes/welcome-home/internal/store"
)

type catalogStub []models.CatalogItem

func (c catalogStub) Products(context.Context, string) ([]models.CatalogItem, error) { return c, nil }

func (catalogStub) BreakerState() string { return "closed" }

func runScript(t *testing.T, script ...string) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	st := store.NewMemoryStore()
	authSvc := auth.NewService(st, auth.NewTokens("test-secret", time.Hour), false)
	authSvc.SetHashCost(bcrypt.MinCost)
	out := false
	products := catalogStub{
		{ID: 1, Name: "Coffee Beans", Category: "coffee"},
		{ID: 10, Name: "Bagels", Category: "bread-bakery", InStock: &out},
	}
	srv := api.NewServer(products, orders.NewService(st, nil), authSvc, api.Options{OrdersRequireAuth: true})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	c, err := client.New(ts.URL, 2*time.Second)
	require.NoError(t, err)

	var buf bytes.Buffer
	a := newApp(c, strings.NewReader(strings.Join(script, "\n")+"\n"), &buf, 2*time.Second)
	a.run(context.Background())
	return buf.String()
}

func TestCheckoutScript(t *testing.T) {
	out := runScript(t,
		"groceries",
		"add 1",
		"inc 1",
		"addon turndown",
		"cart",
		"checkout",
		"2025-06-01", "", "1 Main St", "", "",
		"register",
		"Ann", "ann@example.com", "pw",
		"checkout",
		"2025-06-01", "16:00", "1 Main St", "Leave at door", "",
		"cart",
		"orders",
		"quit",
	)

	assert.Contains(t, out, "Coffee Beans")
	assert.Contains(t, out, "$13.00")
	// 13.00 x2 + 75 turndown
	assert.Contains(t, out, "Groceries $26.00  Add-ons $75.00  Total $101.00")
	assert.Contains(t, out, "Error: Please sign in to place an order.")
	assert.Contains(t, out, "Welcome, Ann.")
	assert.Contains(t, out, "confirmed. Total $101.00")
	assert.Contains(t, out, "Cart is empty.")
	assert.Contains(t, out, "1 Main St")
}

func TestCartCommandErrors(t *testing.T) {
	out := runScript(t,
		"add 10",
		"inc 99",
		"add x",
		"addon spa",
		"checkout",
		"bogus",
		"exit",
	)
	assert.Contains(t, out, "Error: Bagels is out of stock")
	assert.Contains(t, out, "Error: item 99 is not in the cart")
	assert.Contains(t, out, `Error: invalid item id "x"`)
	assert.Contains(t, out, "Error: unknown add-on: spa")
	assert.Contains(t, out, "Error: cart is empty")
	assert.Contains(t, out, `unknown command "bogus"`)
}

func TestMeAndLogout(t *testing.T) {
	out := runScript(t,
		"me",
		"register",
		"", "bob@example.com", "pw",
		"me",
		"logout",
		"me",
	)
	assert.Equal(t, 2, strings.Count(out, "Not signed in."))
	assert.Contains(t, out, "Signed in as bob@example.com <bob@example.com>.")
	assert.Contains(t, out, "Logged out.")
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, client.MsgNetwork, describe(&client.NetworkError{Err: errors.New("refused")}))
	assert.Equal(t, "Order not found.", describe(&client.APIError{Status: 404, Message: "Order not found."}))
	assert.Equal(t, "Cancelled.", describe(context.Canceled))
	assert.Equal(t, "boom", describe(errors.New("boom")))
}
