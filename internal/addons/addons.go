// Package addons prices the fixed set of home add-ons offered with an
// arrival order.
package addons

import (
	"errors"
	"fmt"

	"github.com/ashendes/welcome-home/internal/models"
)

var ErrUnknownAddOn = errors.New("unknown add-on")

var prices = map[string]models.Money{
	models.AddOnWarmHome: models.MoneyFromInt(45),
	models.AddOnLightsOn: models.MoneyFromInt(20),
	models.AddOnFlowers:  models.MoneyFromInt(100),
	models.AddOnTurndown: models.MoneyFromInt(75),
}

var labels = map[string]string{
	models.AddOnWarmHome: "Warm the home",
	models.AddOnLightsOn: "Lights on",
	models.AddOnFlowers:  "Fresh flowers",
	models.AddOnTurndown: "Turndown service",
}

// Price returns the static price of an add-on.
func Price(key string) (models.Money, error) {
	p, ok := prices[key]
	if !ok {
		return models.Zero, fmt.Errorf("%w: %s", ErrUnknownAddOn, key)
	}
	return p, nil
}

// Label returns the display name of an add-on, or the key itself.
func Label(key string) string {
	if l, ok := labels[key]; ok {
		return l
	}
	return key
}

// Known reports whether key is one of the fixed add-ons.
func Known(key string) bool {
	_, ok := prices[key]
	return ok
}

// Subtotal sums the prices of the selected add-ons.
func Subtotal(sel models.AddOnSelection) models.Money {
	total := models.Zero
	for _, key := range models.AddOnKeys {
		if sel.Selected(key) {
			total = total.Add(prices[key])
		}
	}
	return total
}

// FromMap builds a selection from a client payload. Keys outside the fixed
// set are rejected.
func FromMap(m map[string]bool) (models.AddOnSelection, error) {
	var sel models.AddOnSelection
	for key, on := range m {
		if !Known(key) {
			return models.AddOnSelection{}, fmt.Errorf("%w: %s", ErrUnknownAddOn, key)
		}
		setKey(&sel, key, on)
	}
	return sel, nil
}

// ToMap renders a selection with all four keys present.
func ToMap(sel models.AddOnSelection) map[string]bool {
	out := make(map[string]bool, len(models.AddOnKeys))
	for _, key := range models.AddOnKeys {
		out[key] = sel.Selected(key)
	}
	return out
}

func setKey(sel *models.AddOnSelection, key string, on bool) {
	switch key {
	case models.AddOnWarmHome:
		sel.WarmHome = on
	case models.AddOnLightsOn:
		sel.LightsOn = on
	case models.AddOnFlowers:
		sel.Flowers = on
	case models.AddOnTurndown:
		sel.Turndown = on
	}
}

// Selector is the client-side toggle state for the four add-ons.
type Selector struct {
	sel models.AddOnSelection
}

func NewSelector() *Selector { return &Selector{} }

// Toggle flips key and returns its new state.
func (s *Selector) Toggle(key string) (bool, error) {
	if !Known(key) {
		return false, fmt.Errorf("%w: %s", ErrUnknownAddOn, key)
	}
	on := !s.sel.Selected(key)
	setKey(&s.sel, key, on)
	return on, nil
}

func (s *Selector) Selection() models.AddOnSelection { return s.sel }

func (s *Selector) SelectedSubtotal() models.Money { return Subtotal(s.sel) }

// Reset turns every add-on off.
func (s *Selector) Reset() { s.sel = models.AddOnSelection{} }
