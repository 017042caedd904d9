package models

import "time"

// Order statuses. Orders are created confirmed; the other states are set
// only by administrative tooling outside this service.
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusInProgress = "in-progress"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

// Add-on keys. The set is fixed.
const (
	AddOnWarmHome = "warmHome"
	AddOnLightsOn = "lightsOn"
	AddOnFlowers  = "flowers"
	AddOnTurndown = "turndown"
)

// AddOnKeys lists every add-on key in display order.
var AddOnKeys = []string{AddOnWarmHome, AddOnLightsOn, AddOnFlowers, AddOnTurndown}

// AddOnSelection records which home add-ons were chosen.
type AddOnSelection struct {
	WarmHome bool `json:"warmHome"`
	LightsOn bool `json:"lightsOn"`
	Flowers  bool `json:"flowers"`
	Turndown bool `json:"turndown"`
}

// Selected reports whether the add-on with the given key is on. Unknown keys
// are never selected.
func (s AddOnSelection) Selected(key string) bool {
	switch key {
	case AddOnWarmHome:
		return s.WarmHome
	case AddOnLightsOn:
		return s.LightsOn
	case AddOnFlowers:
		return s.Flowers
	case AddOnTurndown:
		return s.Turndown
	}
	return false
}

// Totals is the priced summary of an order.
type Totals struct {
	Groceries  Money `json:"groceries"`
	AddOns     Money `json:"addOns"`
	GrandTotal Money `json:"grandTotal"`
}

// OrderItem is one grocery line of a persisted order.
type OrderItem struct {
	ProductID int    `json:"productId"`
	Name      string `json:"name"`
	Category  string `json:"category,omitempty"`
	Price     Money  `json:"price"`
	Quantity  int    `json:"quantity"`
}

// Order is the persisted arrival order document.
type Order struct {
	ID           string         `json:"id"`
	ArrivalDate  string         `json:"arrivalDate"`
	ArrivalTime  string         `json:"arrivalTime,omitempty"`
	Address      string         `json:"address"`
	Notes        string         `json:"notes,omitempty"`
	ContactEmail string         `json:"contactEmail,omitempty"`
	Items        []OrderItem    `json:"items"`
	AddOns       AddOnSelection `json:"addOns"`
	Totals       Totals         `json:"totals"`
	OwnerID      string         `json:"ownerId,omitempty"`
	Status       string         `json:"status"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// OrderItemInput is a cart line as sent by a client. Older clients send the
// catalog id as "id" instead of "productId".
type OrderItemInput struct {
	ProductID int    `json:"productId"`
	ID        int    `json:"id,omitempty"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Price     Money  `json:"price"`
	Quantity  int    `json:"quantity"`
}

// CatalogID returns the product id, falling back to the legacy field.
func (in OrderItemInput) CatalogID() int {
	if in.ProductID != 0 {
		return in.ProductID
	}
	return in.ID
}

// CreateOrderRequest is the body of POST /api/orders. Totals is accepted so
// clients can send what they displayed, but it is never used. CartItems is
// the legacy name for Items.
type CreateOrderRequest struct {
	ArrivalDate  string           `json:"arrivalDate"`
	ArrivalTime  string           `json:"arrivalTime,omitempty"`
	Address      string           `json:"address"`
	Notes        string           `json:"notes,omitempty"`
	ContactEmail string           `json:"contactEmail,omitempty"`
	Items        []OrderItemInput `json:"items"`
	CartItems    []OrderItemInput `json:"cartItems,omitempty"`
	AddOns       map[string]bool  `json:"addOns,omitempty"`
	Totals       *Totals          `json:"totals,omitempty"`
}

// Lines returns Items, or CartItems when only the legacy field was sent.
func (r CreateOrderRequest) Lines() []OrderItemInput {
	if len(r.Items) == 0 {
		return r.CartItems
	}
	return r.Items
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Message string `json:"message"`
}
