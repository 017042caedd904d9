// Package api exposes the concierge REST endpoints.
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"

	"github.com/ashendes/welcome-home/internal/apperrors"
	"github.com/ashendes/welcome-home/internal/auth"
	"github.com/ashendes/welcome-home/internal/logging"
	"github.com/ashendes/welcome-home/internal/metrics"
	"github.com/ashendes/welcome-home/internal/models"
	"github.com/ashendes/welcome-home/internal/orders"
)

// Catalog lists grocery products.
type Catalog interface {
	Products(ctx context.Context, category string) ([]models.CatalogItem, error)
	BreakerState() string
}

// Options tunes the HTTP surface.
type Options struct {
	ServiceName       string
	OrdersRequireAuth bool
	CORSOrigins       []string
}

// Server wires the domain services to gin handlers.
type Server struct {
	catalog Catalog
	orders  *orders.Service
	auth    *auth.Service
	opts    Options
}

func NewServer(catalog Catalog, orderSvc *orders.Service, authSvc *auth.Service, opts Options) *Server {
	if opts.ServiceName == "" {
		opts.ServiceName = "concierge-api"
	}
	return &Server{catalog: catalog, orders: orderSvc, auth: authSvc, opts: opts}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logging.RequestLogger(s.opts.ServiceName))
	router.Use(metrics.PrometheusMiddleware(s.opts.ServiceName))

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Welcome Home API is running")
	})
	router.GET("/health", s.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")

	groceries := api.Group("/groceries")
	groceries.GET("", s.listGroceries)
	groceries.GET("/products", s.listGroceries)
	groceries.GET("/circuit-status", s.circuitStatus)

	ordersGroup := api.Group("/orders")
	ordersGroup.POST("", s.auth.Optional(), s.createOrder)
	ordersGroup.GET("", s.auth.Required(), s.myOrders)
	ordersGroup.GET("/my", s.auth.Required(), s.myOrders)
	ordersGroup.GET("/:id", s.auth.Optional(), s.getOrder)

	authGroup := api.Group("/auth")
	authGroup.POST("/register", s.register)
	authGroup.POST("/login", s.login)
	authGroup.POST("/logout", s.logout)
	authGroup.GET("/me", s.auth.Required(), s.me)

	return router
}

// Handler wraps the router with CORS for the configured origins.
func (s *Server) Handler() http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   s.opts.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	}).Handler(s.Router())
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "healthy",
		"catalog_circuit": s.catalog.BreakerState(),
	})
}

// respondError writes err as a {message} body. Errors without a user-facing
// message get fallback.
func respondError(c *gin.Context, err error, fallback string) {
	status := apperrors.StatusCode(err)
	if status >= http.StatusInternalServerError {
		log.WithFields(log.Fields{
			"path":  c.Request.URL.Path,
			"kind":  apperrors.KindOf(err).String(),
			"error": err.Error(),
		}).Error("Request failed")
	}
	c.JSON(status, models.ErrorResponse{Message: apperrors.Message(err, fallback)})
}
