package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashendes/welcome-home/internal/models"
)

func TestNilRabbitDropsEvents(t *testing.T) {
	r, err := NewRabbit("", "domain_events")
	require.NoError(t, err)
	assert.Nil(t, r)

	var p Publisher = r
	assert.NoError(t, p.Publish(context.Background(), RoutingOrderCreated, map[string]string{"a": "b"}))
	assert.NoError(t, r.Close())
}

func TestNewOrderCreated(t *testing.T) {
	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	o := &models.Order{
		ID:          "ord-1",
		OwnerID:     "user-1",
		ArrivalDate: "2025-06-02",
		Items: []models.OrderItem{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 3},
		},
		AddOns:    models.AddOnSelection{Flowers: true, WarmHome: true},
		Totals:    models.Totals{GrandTotal: models.MustMoney("150")},
		CreatedAt: created,
	}

	ev := NewOrderCreated(o)
	assert.Equal(t, "ord-1", ev.OrderID)
	assert.Equal(t, 5, ev.ItemCount)
	assert.Equal(t, []string{models.AddOnWarmHome, models.AddOnFlowers}, ev.AddOns)
	assert.Equal(t, "150.00", ev.Totals.GrandTotal.String())
}

func TestNewPublishing(t *testing.T) {
	now := time.Now()
	msg, err := newPublishing(OrderCreated{OrderID: "ord-1", AddOns: []string{}}, now)
	require.NoError(t, err)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, now, msg.Timestamp)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, "ord-1", decoded["orderId"])
	assert.NotContains(t, decoded, "ownerId")

	_, err = newPublishing(make(chan int), now)
	assert.Error(t, err)
}
