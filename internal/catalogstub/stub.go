// Package catalogstub serves a local grocery catalog with the same shape as
// the upstream store API, plus switches that inject failures and latency.
package catalogstub

import (
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/ashendes/welcome-home/internal/metrics"
	"github.com/ashendes/welcome-home/internal/models"
)

const serviceName = "catalog-stub"

func inStock(v bool) *bool { return &v }

// DefaultProducts is a small catalog covering every priced category.
func DefaultProducts() []models.CatalogItem {
	return []models.CatalogItem{
		{ID: 4643, Name: "Organic Bananas", Category: "fresh-produce", InStock: inStock(true)},
		{ID: 4646, Name: "Green Apples", Category: "fresh-produce", InStock: inStock(true)},
		{ID: 1709, Name: "Atlantic Salmon", Category: "meat-seafood", InStock: inStock(true)},
		{ID: 2177, Name: "Ribeye Steak", Category: "meat-seafood", InStock: inStock(false)},
		{ID: 3674, Name: "Sourdough Loaf", Category: "bread-bakery", InStock: inStock(true)},
		{ID: 1225, Name: "Ground Coffee", Category: "coffee", InStock: inStock(true)},
		{ID: 5774, Name: "Sparkling Water", Category: "beverages", InStock: inStock(true)},
		{ID: 8554, Name: "Dark Chocolate", Category: "candy", InStock: inStock(true)},
	}
}

// Server holds the catalog and the chaos switches.
type Server struct {
	mu       sync.RWMutex
	products []models.CatalogItem

	chaosMu     sync.RWMutex
	failureRate float64
	slowDelay   time.Duration
	rng         *rand.Rand
}

func New(products []models.CatalogItem) *Server {
	return &Server{
		products: products,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetFailureRate makes that share of product requests answer 503. Rates are
// clamped to [0, 1].
func (s *Server) SetFailureRate(rate float64) {
	if rate < 0 {
		rate = 0
	}
	if rate > 1 {
		rate = 1
	}
	s.chaosMu.Lock()
	s.failureRate = rate
	s.chaosMu.Unlock()
	metrics.ChaosFailureRate.WithLabelValues(serviceName).Set(rate)
}

// SetSlowDelay delays every product request by d.
func (s *Server) SetSlowDelay(d time.Duration) {
	if d < 0 {
		d = 0
	}
	s.chaosMu.Lock()
	s.slowDelay = d
	s.chaosMu.Unlock()
	metrics.ChaosSlowMode.WithLabelValues(serviceName).Set(d.Seconds())
}

func (s *Server) chaos() (time.Duration, float64) {
	s.chaosMu.RLock()
	defer s.chaosMu.RUnlock()
	return s.slowDelay, s.failureRate
}

// simulateChaos sleeps and rolls for failure according to the switches.
func (s *Server) simulateChaos() bool {
	delay, rate := s.chaos()
	if delay > 0 {
		log.WithField("delay_ms", delay.Milliseconds()).Debug("Chaos: Simulating slow response")
		time.Sleep(delay)
	}
	if rate <= 0 {
		return false
	}
	s.chaosMu.Lock()
	roll := s.rng.Float64()
	s.chaosMu.Unlock()
	return roll < rate
}

func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(metrics.PrometheusMiddleware(serviceName))

	router.GET("/status", s.status)
	router.GET("/products", s.listProducts)
	router.GET("/products/:id", s.getProduct)

	router.POST("/chaos/enable", s.enableChaos)
	router.POST("/chaos/disable", s.disableChaos)
	router.POST("/chaos/slow", s.enableSlowMode)
	router.POST("/chaos/slow/disable", s.disableSlowMode)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return router
}

func (s *Server) status(c *gin.Context) {
	delay, rate := s.chaos()
	c.JSON(http.StatusOK, gin.H{
		"status":        "UP",
		"failure_rate":  rate,
		"slow_delay_ms": delay.Milliseconds(),
		"timestamp":     time.Now().Format(time.RFC3339),
	})
}

func unavailable(c *gin.Context) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable"})
}

// listProducts supports the upstream filters: category, available and
// results (a limit).
func (s *Server) listProducts(c *gin.Context) {
	if s.simulateChaos() {
		log.WithField("path", c.Request.URL.Path).Warn("Chaos: Simulated failure")
		unavailable(c)
		return
	}

	category := c.Query("category")
	available := c.Query("available")
	limit := -1
	if v := c.Query("results"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 20 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid value for query parameter 'results'. Must be between 1 and 20."})
			return
		}
		limit = n
	}

	s.mu.RLock()
	out := make([]models.CatalogItem, 0, len(s.products))
	for _, p := range s.products {
		if category != "" && p.Category != category {
			continue
		}
		if available != "" {
			want := available == "true"
			if p.InStock == nil || *p.InStock != want {
				continue
			}
		}
		out = append(out, p)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	s.mu.RUnlock()

	c.JSON(http.StatusOK, out)
}

func (s *Server) getProduct(c *gin.Context) {
	if s.simulateChaos() {
		unavailable(c)
		return
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No product with id " + c.Param("id") + "."})
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.ID == id {
			c.JSON(http.StatusOK, p)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "No product with id " + c.Param("id") + "."})
}

type chaosRequest struct {
	FailureRate float64 `json:"failureRate"`
	DelayMs     int     `json:"delayMs"`
}

func (s *Server) enableChaos(c *gin.Context) {
	req := chaosRequest{FailureRate: 0.3}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
			return
		}
	}
	s.SetFailureRate(req.FailureRate)
	_, rate := s.chaos()

	log.WithField("failure_rate", rate).Info("Chaos mode ENABLED for catalog stub")
	c.JSON(http.StatusOK, gin.H{"message": "Chaos mode enabled", "failure_rate": rate})
}

func (s *Server) disableChaos(c *gin.Context) {
	s.SetFailureRate(0)
	s.SetSlowDelay(0)
	log.Info("Chaos mode DISABLED for catalog stub")
	c.JSON(http.StatusOK, gin.H{"message": "Chaos mode disabled"})
}

func (s *Server) enableSlowMode(c *gin.Context) {
	req := chaosRequest{DelayMs: 3000}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
			return
		}
	}
	s.SetSlowDelay(time.Duration(req.DelayMs) * time.Millisecond)

	log.WithField("delay_ms", req.DelayMs).Info("Slow mode ENABLED for catalog stub")
	c.JSON(http.StatusOK, gin.H{"message": "Slow mode enabled", "delay_ms": req.DelayMs})
}

func (s *Server) disableSlowMode(c *gin.Context) {
	s.SetSlowDelay(0)
	log.Info("Slow mode DISABLED for catalog stub")
	c.JSON(http.StatusOK, gin.H{"message": "Slow mode disabled"})
}
