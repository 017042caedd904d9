// Package catalog fetches the grocery catalog from the upstream store API.
// Items carry no price; pricing is applied by callers.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
	log "github.com/sirupsen/logrus"

	"github.com/ashendes/welcome-home/internal/apperrors"
	"github.com/ashendes/welcome-home/internal/metrics"
	"github.com/ashendes/welcome-home/internal/models"
	"github.com/ashendes/welcome-home/internal/patterns"
)

// LoadFailedMessage is shown to users when the catalog cannot be fetched.
const LoadFailedMessage = "Could not load groceries."

const (
	serviceName = "concierge-api"
	productsKey = "products"
)

// ErrMalformed marks an upstream body that is not a list of products.
var ErrMalformed = errors.New("malformed catalog response")

// Options configures a Provider. Zero values take defaults.
type Options struct {
	BaseURL     string
	Timeout     time.Duration
	CacheTTL    time.Duration
	CacheSize   int
	Concurrency int
	Breaker     patterns.BreakerSettings
}

// Provider reads products through a breaker, a bulkhead and a short-lived
// cache. Failed fetches are never cached.
type Provider struct {
	client   *resty.Client
	breaker  *patterns.CircuitBreakerWrapper
	bulkhead *patterns.Bulkhead
	cache    *expirable.LRU[string, []models.CatalogItem]
}

func New(opts Options) *Provider {
	if opts.Timeout <= 0 {
		opts.Timeout = patterns.DefaultTimeout
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 64
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 10
	}

	return &Provider{
		client: resty.New().
			SetBaseURL(opts.BaseURL).
			SetTimeout(opts.Timeout).
			SetHeader("Accept", "application/json"),
		breaker:  patterns.NewCircuitBreaker("catalog", serviceName, opts.Breaker),
		bulkhead: patterns.NewBulkhead(opts.Concurrency, patterns.DefaultBulkheadWait, "catalog", serviceName),
		cache:    expirable.NewLRU[string, []models.CatalogItem](opts.CacheSize, nil, opts.CacheTTL),
	}
}

// Products returns the catalog, optionally narrowed to one category.
func (p *Provider) Products(ctx context.Context, category string) ([]models.CatalogItem, error) {
	items, err := p.all(ctx)
	if err != nil {
		return nil, err
	}
	if category == "" {
		return items, nil
	}
	out := make([]models.CatalogItem, 0, len(items))
	for _, it := range items {
		if it.Category == category {
			out = append(out, it)
		}
	}
	return out, nil
}

// Product looks up one item by id.
func (p *Provider) Product(ctx context.Context, id int) (models.CatalogItem, bool, error) {
	items, err := p.all(ctx)
	if err != nil {
		return models.CatalogItem{}, false, err
	}
	for _, it := range items {
		if it.ID == id {
			return it, true, nil
		}
	}
	return models.CatalogItem{}, false, nil
}

// Invalidate drops the cached catalog.
func (p *Provider) Invalidate() { p.cache.Remove(productsKey) }

// BreakerState reports the upstream circuit state.
func (p *Provider) BreakerState() string { return p.breaker.GetState() }

func (p *Provider) all(ctx context.Context) ([]models.CatalogItem, error) {
	if items, ok := p.cache.Get(productsKey); ok {
		metrics.CatalogCacheLookups.WithLabelValues("hit").Inc()
		return copyItems(items), nil
	}
	metrics.CatalogCacheLookups.WithLabelValues("miss").Inc()

	// The fetch is detached from the caller and bounded by the client
	// timeout, so only upstream outcomes reach the breaker.
	fetchCtx := context.WithoutCancel(ctx)
	var items []models.CatalogItem
	err := p.bulkhead.Execute(ctx, func() error {
		result, err := p.breaker.Execute(func() (interface{}, error) {
			return p.fetch(fetchCtx)
		})
		if err != nil {
			return err
		}
		items = result.([]models.CatalogItem)
		return nil
	})
	if err != nil {
		log.WithFields(log.Fields{
			"error":   err.Error(),
			"circuit": p.breaker.GetState(),
		}).Error("Catalog fetch failed")
		return nil, apperrors.Upstream(LoadFailedMessage, err)
	}

	p.cache.Add(productsKey, items)
	return copyItems(items), nil
}

func (p *Provider) fetch(ctx context.Context) ([]models.CatalogItem, error) {
	resp, err := p.client.R().
		SetContext(ctx).
		Get("/products")
	if err != nil {
		return nil, fmt.Errorf("catalog request: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("catalog returned status %d", resp.StatusCode())
	}
	return decodeProducts(resp.Body())
}

// decodeProducts accepts only a JSON array of objects with a positive
// integer id.
func decodeProducts(body []byte) ([]models.CatalogItem, error) {
	var items []models.CatalogItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if items == nil {
		return nil, fmt.Errorf("%w: expected an array", ErrMalformed)
	}
	for i, it := range items {
		if it.ID < 1 {
			return nil, fmt.Errorf("%w: item %d has no id", ErrMalformed, i)
		}
	}
	return items, nil
}

func copyItems(items []models.CatalogItem) []models.CatalogItem {
	return append(make([]models.CatalogItem, 0, len(items)), items...)
}
