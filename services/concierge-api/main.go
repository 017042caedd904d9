package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ashendes/welcome-home/internal/api"
	"github.com/ashendes/welcome-home/internal/auth"
	"github.com/ashendes/welcome-home/internal/catalog"
	"github.com/ashendes/welcome-home/internal/config"
	"github.com/ashendes/welcome-home/internal/events"
	"github.com/ashendes/welcome-home/internal/logging"
	"github.com/ashendes/welcome-home/internal/orders"
	"github.com/ashendes/welcome-home/internal/store"
)

const serviceName = "concierge-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}
	logging.Setup(serviceName, cfg.LogLevel)

	if cfg.JWTSecret == config.DefaultJWTSecret {
		log.Warn("JWT_SECRET is not set, using the development secret")
	}

	if cfg.StoreDriver != config.StoreMemory {
		if err := os.MkdirAll(filepath.Dir(cfg.StorePath), 0o755); err != nil {
			log.Fatal("Failed to create store directory: ", err)
		}
	}
	st, err := store.Open(cfg.StoreDriver, cfg.StorePath)
	if err != nil {
		log.Fatal("Failed to open store: ", err)
	}
	defer st.Close()

	var publisher events.Publisher
	rabbit, err := events.NewRabbit(cfg.RabbitURL, cfg.RabbitExchange)
	if err != nil {
		log.WithField("error", err.Error()).Warn("RabbitMQ unavailable, order events disabled")
	} else if rabbit != nil {
		publisher = rabbit
		defer rabbit.Close()
	}

	products := catalog.New(catalog.Options{
		BaseURL:     cfg.CatalogURL,
		Timeout:     cfg.CatalogTimeout,
		CacheTTL:    cfg.CatalogCacheTTL,
		CacheSize:   cfg.CatalogCacheSize,
		Concurrency: cfg.CatalogConcurrency,
	})

	authSvc := auth.NewService(st, auth.NewTokens(cfg.JWTSecret, cfg.SessionTTL), cfg.CookieSecure)
	orderSvc := orders.NewService(st, publisher)

	server := api.NewServer(products, orderSvc, authSvc, api.Options{
		ServiceName:       serviceName,
		OrdersRequireAuth: cfg.OrdersRequireAuth,
		CORSOrigins:       cfg.CORSOrigins,
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.WithFields(log.Fields{
			"port":         cfg.Port,
			"store":        cfg.StoreDriver,
			"catalog_url":  cfg.CatalogURL,
			"require_auth": cfg.OrdersRequireAuth,
			"events":       cfg.RabbitURL != "",
		}).Info("Concierge API starting")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.WithField("error", err.Error()).Error("Graceful shutdown failed")
	}
}
