// Package orders validates, prices and persists arrival orders.
package orders

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/ashendes/welcome-home/internal/addons"
	"github.com/ashendes/welcome-home/internal/apperrors"
	"github.com/ashendes/welcome-home/internal/events"
	"github.com/ashendes/welcome-home/internal/metrics"
	"github.com/ashendes/welcome-home/internal/models"
	"github.com/ashendes/welcome-home/internal/patterns"
	"github.com/ashendes/welcome-home/internal/pricing"
	"github.com/ashendes/welcome-home/internal/store"
)

const (
	MsgSignInRequired = "Please sign in to place an order."
	MsgCreateFailed   = "Failed to create order."
	MsgNotFound       = "Order not found."
	MsgFetchFailed    = "Failed to fetch order."
	MsgListFailed     = "Failed to fetch orders."
)

// Service owns the order lifecycle: validate, price, persist, announce.
type Service struct {
	store     store.OrderStore
	publisher events.Publisher
	now       func() time.Time
	newID     func() string
}

func NewService(st store.OrderStore, publisher events.Publisher) *Service {
	return &Service{
		store:     st,
		publisher: publisher,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
}

// Create validates req, recomputes every price and total, and stores the
// order. ownerID is empty for anonymous orders.
func (s *Service) Create(ctx context.Context, req models.CreateOrderRequest, ownerID string) (*models.Order, error) {
	sel, err := Validate(req)
	if err != nil {
		metrics.OrdersTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	items, groceries := priceLines(req.Lines())
	totals := pricing.ComputeTotals(groceries, addons.Subtotal(sel))
	if req.Totals != nil && !req.Totals.GrandTotal.Equal(totals.GrandTotal) {
		log.WithFields(log.Fields{
			"client_total": req.Totals.GrandTotal.String(),
			"server_total": totals.GrandTotal.String(),
		}).Warn("Client totals differ from server totals")
	}

	order := &models.Order{
		ID:           s.newID(),
		ArrivalDate:  strings.TrimSpace(req.ArrivalDate),
		ArrivalTime:  strings.TrimSpace(req.ArrivalTime),
		Address:      strings.TrimSpace(req.Address),
		Notes:        strings.TrimSpace(req.Notes),
		ContactEmail: strings.TrimSpace(req.ContactEmail),
		Items:        items,
		AddOns:       sel,
		Totals:       totals,
		OwnerID:      ownerID,
		Status:       models.OrderStatusConfirmed,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.store.CreateOrder(ctx, order); err != nil {
		metrics.OrdersTotal.WithLabelValues("failed").Inc()
		log.WithFields(log.Fields{
			"order_id": order.ID,
			"error":    err.Error(),
		}).Error("Failed to persist order")
		return nil, apperrors.Persistence(MsgCreateFailed, err)
	}

	metrics.OrdersTotal.WithLabelValues("created").Inc()
	metrics.OrderGrandTotal.Observe(order.Totals.GrandTotal.Float64())
	log.WithFields(log.Fields{
		"order_id":    order.ID,
		"owner_id":    ownerID,
		"items":       len(order.Items),
		"grand_total": order.Totals.GrandTotal.String(),
	}).Info("Order created")

	s.announce(ctx, order)
	return order, nil
}

// announce publishes order.created. The order is already stored, so a
// failure is only logged.
func (s *Service) announce(ctx context.Context, order *models.Order) {
	if s.publisher == nil {
		return
	}
	pubCtx, cancel := patterns.WithTimeout(context.WithoutCancel(ctx), 0)
	defer cancel()
	if err := s.publisher.Publish(pubCtx, events.RoutingOrderCreated, events.NewOrderCreated(order)); err != nil {
		log.WithFields(log.Fields{
			"order_id": order.ID,
			"error":    err.Error(),
		}).Warn("Failed to publish order.created")
	}
}

// priceLines re-derives every unit price from the catalog id and category.
// The groceries sum is left unrounded.
func priceLines(lines []models.OrderItemInput) ([]models.OrderItem, models.Money) {
	items := make([]models.OrderItem, 0, len(lines))
	total := models.Zero
	for _, in := range lines {
		id := in.CatalogID()
		price := pricing.Price(id, in.Category)
		if !in.Price.IsZero() && !in.Price.Equal(price) {
			log.WithFields(log.Fields{
				"product_id":   id,
				"client_price": in.Price.String(),
				"server_price": price.String(),
			}).Debug("Replacing client price")
		}
		items = append(items, models.OrderItem{
			ProductID: id,
			Name:      strings.TrimSpace(in.Name),
			Category:  in.Category,
			Price:     price,
			Quantity:  in.Quantity,
		})
		total = total.Add(pricing.LineTotal(price, in.Quantity))
	}
	return items, total
}

// Get returns an order by id. Orders with an owner are only visible to that
// owner; everyone else gets not found.
func (s *Service) Get(ctx context.Context, id, requesterID string) (*models.Order, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.NotFound(MsgNotFound)
	}
	order, err := s.store.GetOrder(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NotFound(MsgNotFound)
	}
	if err != nil {
		return nil, apperrors.Internal(MsgFetchFailed, err)
	}
	if order.OwnerID != "" && order.OwnerID != requesterID {
		return nil, apperrors.NotFound(MsgNotFound)
	}
	return order, nil
}

// ListForOwner returns the owner's orders, newest first.
func (s *Service) ListForOwner(ctx context.Context, ownerID string) ([]*models.Order, error) {
	if ownerID == "" {
		return nil, apperrors.Auth("Not authenticated.")
	}
	orders, err := s.store.ListOrdersByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperrors.Internal(MsgListFailed, err)
	}
	return orders, nil
}
