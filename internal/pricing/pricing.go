// Package pricing derives grocery prices from catalog data and computes order
// totals. The same functions run in the client for display and in the API
// for the authoritative totals, so they must stay pure.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/ashendes/welcome-home/internal/models"
)

const variationModulus = 300

var (
	defaultBasePrice = models.MustMoney("7.99")

	categoryBasePrices = map[string]models.Money{
		"fresh-produce": models.MustMoney("4.99"),
		"meat-seafood":  models.MustMoney("19.99"),
		"bread-bakery":  models.MustMoney("3.49"),
		"coffee":        models.MustMoney("12.99"),
	}
)

// BasePrice returns the category base price, or the default for unknown
// categories.
func BasePrice(category string) models.Money {
	if p, ok := categoryBasePrices[category]; ok {
		return p
	}
	return defaultBasePrice
}

// Price returns the unit price for a product id in a category:
// base(category) + (id mod 300)/100, rounded to cents.
func Price(id int, category string) models.Money {
	variation := decimal.New(int64(id%variationModulus), -2)
	return BasePrice(category).Add(models.NewMoney(variation)).Round2()
}

// PriceItem prices a catalog item.
func PriceItem(item models.CatalogItem) models.PricedItem {
	return models.PricedItem{CatalogItem: item, Price: Price(item.ID, item.Category)}
}

// PriceAll prices a catalog listing, keeping its order.
func PriceAll(items []models.CatalogItem) []models.PricedItem {
	out := make([]models.PricedItem, 0, len(items))
	for _, it := range items {
		out = append(out, PriceItem(it))
	}
	return out
}

// LineTotal is price × quantity without rounding.
func LineTotal(price models.Money, quantity int) models.Money {
	return price.Mul(quantity)
}

// ComputeTotals combines the grocery and add-on subtotals. Each component is
// rounded to cents on its own; the grand total is rounded from the unrounded
// sum.
func ComputeTotals(groceries, addOns models.Money) models.Totals {
	return models.Totals{
		Groceries:  groceries.Round2(),
		AddOns:     addOns.Round2(),
		GrandTotal: groceries.Add(addOns).Round2(),
	}
}
