// Package cart holds the client-side grocery cart.
//
// A Cart is owned by a single event loop and is not safe for concurrent use.
package cart

import (
	"github.com/ashendes/welcome-home/internal/models"
	"github.com/ashendes/welcome-home/internal/pricing"
)

// Line is one product in the cart. Price is frozen when the line is created.
type Line struct {
	ItemID   int
	Name     string
	Category string
	Price    models.Money
	Quantity int
}

// Total is price × quantity for the line.
func (l Line) Total() models.Money { return pricing.LineTotal(l.Price, l.Quantity) }

// Cart maps item ids to lines and remembers insertion order for display.
type Cart struct {
	lines map[int]*Line
	order []int
}

func New() *Cart {
	return &Cart{lines: make(map[int]*Line)}
}

// Add puts one unit of item in the cart. A new line is priced now; an
// existing line only gains quantity.
func (c *Cart) Add(item models.CatalogItem) Line {
	if l, ok := c.lines[item.ID]; ok {
		l.Quantity++
		return *l
	}
	l := &Line{
		ItemID:   item.ID,
		Name:     item.Name,
		Category: item.Category,
		Price:    pricing.Price(item.ID, item.Category),
		Quantity: 1,
	}
	c.lines[item.ID] = l
	c.order = append(c.order, item.ID)
	return *l
}

// Increment adds one unit to an existing line. It reports false when the item
// is not in the cart.
func (c *Cart) Increment(itemID int) bool {
	l, ok := c.lines[itemID]
	if !ok {
		return false
	}
	l.Quantity++
	return true
}

// Decrement removes one unit from an existing line. A line at quantity 1 is
// left as is; use Remove to drop it.
func (c *Cart) Decrement(itemID int) bool {
	l, ok := c.lines[itemID]
	if !ok || l.Quantity <= 1 {
		return false
	}
	l.Quantity--
	return true
}

// Remove deletes the line for itemID.
func (c *Cart) Remove(itemID int) bool {
	if _, ok := c.lines[itemID]; !ok {
		return false
	}
	delete(c.lines, itemID)
	for i, id := range c.order {
		if id == itemID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = make(map[int]*Line)
	c.order = nil
}

// Get returns a copy of the line for itemID.
func (c *Cart) Get(itemID int) (Line, bool) {
	l, ok := c.lines[itemID]
	if !ok {
		return Line{}, false
	}
	return *l, true
}

func (c *Cart) Len() int { return len(c.lines) }

// Lines returns copies of all lines in the order they were first added.
func (c *Cart) Lines() []Line {
	out := make([]Line, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.lines[id])
	}
	return out
}

// Subtotal is the sum of price × quantity over all lines, unrounded.
func (c *Cart) Subtotal() models.Money {
	total := models.Zero
	for _, l := range c.lines {
		total = total.Add(l.Total())
	}
	return total
}

// Items converts the cart into order request lines.
func (c *Cart) Items() []models.OrderItemInput {
	lines := c.Lines()
	out := make([]models.OrderItemInput, 0, len(lines))
	for _, l := range lines {
		out = append(out, models.OrderItemInput{
			ProductID: l.ItemID,
			Name:      l.Name,
			Category:  l.Category,
			Price:     l.Price,
			Quantity:  l.Quantity,
		})
	}
	return out
}
