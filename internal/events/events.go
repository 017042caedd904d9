// Package events publishes domain events to a RabbitMQ topic exchange.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"

	"github.com/ashendes/welcome-home/internal/metrics"
	"github.com/ashendes/welcome-home/internal/models"
)

// RoutingOrderCreated is published once per persisted order.
const RoutingOrderCreated = "order.created"

// Publisher sends a JSON payload under a routing key.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
}

// OrderCreated is the order.created payload.
type OrderCreated struct {
	OrderID     string        `json:"orderId"`
	OwnerID     string        `json:"ownerId,omitempty"`
	ArrivalDate string        `json:"arrivalDate"`
	ItemCount   int           `json:"itemCount"`
	AddOns      []string      `json:"addOns"`
	Totals      models.Totals `json:"totals"`
	CreatedAt   time.Time     `json:"createdAt"`
}

func NewOrderCreated(o *models.Order) OrderCreated {
	count := 0
	for _, it := range o.Items {
		count += it.Quantity
	}
	selected := make([]string, 0, len(models.AddOnKeys))
	for _, key := range models.AddOnKeys {
		if o.AddOns.Selected(key) {
			selected = append(selected, key)
		}
	}
	return OrderCreated{
		OrderID:     o.ID,
		OwnerID:     o.OwnerID,
		ArrivalDate: o.ArrivalDate,
		ItemCount:   count,
		AddOns:      selected,
		Totals:      o.Totals,
		CreatedAt:   o.CreatedAt,
	}
}

// Rabbit publishes to one exchange. A nil *Rabbit drops every event.
type Rabbit struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	// amqp channels are not safe for concurrent publishing
	mu sync.Mutex
}

// NewRabbit dials url and declares a durable topic exchange. An empty url
// returns a nil publisher.
func NewRabbit(url, exchange string) (*Rabbit, error) {
	if url == "" {
		return nil, nil
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &Rabbit{conn: conn, ch: ch, exchange: exchange}, nil
}

func (r *Rabbit) Publish(ctx context.Context, routingKey string, payload interface{}) error {
	if r == nil || r.ch == nil {
		return nil
	}
	msg, err := newPublishing(payload, time.Now())
	if err != nil {
		return err
	}

	r.mu.Lock()
	err = r.ch.PublishWithContext(ctx, r.exchange, routingKey, false, false, msg)
	r.mu.Unlock()

	result := "ok"
	if err != nil {
		result = "error"
		log.WithFields(log.Fields{
			"routing_key": routingKey,
			"error":       err.Error(),
		}).Warn("Event publish failed")
	}
	metrics.OrderEventsPublished.WithLabelValues(routingKey, result).Inc()
	return err
}

func (r *Rabbit) Close() error {
	if r == nil {
		return nil
	}
	if r.ch != nil {
		r.ch.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

func newPublishing(payload interface{}, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("encode event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
		Timestamp:    now,
	}, nil
}
