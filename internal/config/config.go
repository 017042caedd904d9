package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultJWTSecret is only acceptable outside production.
const DefaultJWTSecret = "dev-secret-change-me"

// Store drivers.
const (
	StoreMemory = "memory"
	StorePebble = "pebble"
	StoreSQLite = "sqlite"
)

// Config holds the API server settings.
type Config struct {
	Port        string
	Environment string
	LogLevel    string
	CORSOrigins []string

	CatalogURL         string
	CatalogTimeout     time.Duration
	CatalogCacheTTL    time.Duration
	CatalogCacheSize   int
	CatalogConcurrency int

	StoreDriver string
	StorePath   string

	JWTSecret         string
	SessionTTL        time.Duration
	CookieSecure      bool
	OrdersRequireAuth bool

	RabbitURL      string
	RabbitExchange string
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (*Config, error) {
	var errs []error
	durationEnv := func(key string, fallback time.Duration) time.Duration {
		d, err := getDuration(key, fallback)
		if err != nil {
			errs = append(errs, err)
		}
		return d
	}
	intEnv := func(key string, fallback int) int {
		n, err := getInt(key, fallback)
		if err != nil {
			errs = append(errs, err)
		}
		return n
	}
	boolEnv := func(key string, fallback bool) bool {
		b, err := getBool(key, fallback)
		if err != nil {
			errs = append(errs, err)
		}
		return b
	}

	cfg := &Config{
		Port:        getEnv("PORT", "4000"),
		Environment: getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),

		CatalogURL:         strings.TrimRight(getEnv("CATALOG_URL", "https://simple-grocery-store-api.glitch.me"), "/"),
		CatalogTimeout:     durationEnv("CATALOG_TIMEOUT", 3*time.Second),
		CatalogCacheTTL:    durationEnv("CATALOG_CACHE_TTL", 5*time.Minute),
		CatalogCacheSize:   intEnv("CATALOG_CACHE_SIZE", 64),
		CatalogConcurrency: intEnv("CATALOG_CONCURRENCY", 10),

		StoreDriver: getEnv("STORE_DRIVER", StoreMemory),
		StorePath:   getEnv("STORE_PATH", "./data/welcome-home"),

		JWTSecret:         getEnv("JWT_SECRET", DefaultJWTSecret),
		SessionTTL:        durationEnv("SESSION_TTL", 7*24*time.Hour),
		CookieSecure:      boolEnv("COOKIE_SECURE", false),
		OrdersRequireAuth: boolEnv("ORDERS_REQUIRE_AUTH", true),

		RabbitURL:      getEnv("RABBIT_URL", ""),
		RabbitExchange: getEnv("RABBIT_EXCHANGE", "domain_events"),
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreMemory, StorePebble, StoreSQLite:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.CatalogConcurrency < 1 {
		return errors.New("CATALOG_CONCURRENCY must be at least 1")
	}
	if c.CatalogCacheSize < 1 {
		return errors.New("CATALOG_CACHE_SIZE must be at least 1")
	}
	if c.IsProduction() && c.JWTSecret == DefaultJWTSecret {
		return errors.New("JWT_SECRET must be set in production")
	}
	return nil
}

func (c *Config) IsProduction() bool { return c.Environment == "production" }

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
