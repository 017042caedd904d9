package models

// CatalogItem is a grocery product as listed by the catalog provider.
type CatalogItem struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	InStock  *bool  `json:"inStock,omitempty"`
}

// PricedItem is a catalog item with its derived price.
type PricedItem struct {
	CatalogItem
	Price Money `json:"price"`
}
