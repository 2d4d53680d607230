package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/tair/catalog-console/pkg/database"
	"github.com/tair/catalog-console/pkg/logger"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StorageSQLite   = database.DriverSQLite
	StoragePostgres = database.DriverPostgres
)

// Category matching policies accepted by CATEGORY_MATCH.
const (
	CategoryMatchExact = "exact"
	CategoryMatchFold  = "fold"
)

// ServiceConfig describes the remote product API
type ServiceConfig struct {
	Name    string
	BaseURL string
	Timeout time.Duration
}

// ConsoleConfig holds the main console configuration. Keys are flat: envconfig
// falls back to the unprefixed name for nested structs, which would read PATH or USER.
type ConsoleConfig struct {
	Port    string `envconfig:"CONSOLE_PORT" default:"8000"`
	OpsPort string `envconfig:"OPS_PORT" default:"9100"`

	ProductAPIURL     string        `envconfig:"PRODUCT_API_URL" default:"https://mock-data-josw.onrender.com/products"`
	ProductAPITimeout time.Duration `envconfig:"PRODUCT_API_TIMEOUT" default:"0s"`

	CurrencySymbol string `envconfig:"CURRENCY_SYMBOL" default:"GH₵"`
	CategoryMatch  string `envconfig:"CATEGORY_MATCH" default:"exact"`

	StorageDriver string `envconfig:"STORAGE_DRIVER" default:"memory"`
	DBHost        string `envconfig:"DB_HOST" default:"localhost"`
	DBPort        string `envconfig:"DB_PORT" default:"5432"`
	DBUser        string `envconfig:"DB_USER" default:"postgres"`
	DBPassword    string `envconfig:"DB_PASSWORD" default:"postgres"`
	DBName        string `envconfig:"DB_NAME" default:"catalog_console"`
	DBSSLMode     string `envconfig:"DB_SSLMODE" default:"disable"`
	DBPath        string `envconfig:"DB_PATH" default:"catalog-console.db"`

	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string   `envconfig:"KAFKA_TOPIC" default:"catalog-product-changes"`

	RateLimitMax    int           `envconfig:"RATE_LIMIT_MAX" default:"100"`
	RateLimitWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	SessionTTL time.Duration `envconfig:"SESSION_TTL" default:"24h"`

	ServiceName        string   `envconfig:"OTEL_SERVICE_NAME" default:"catalog-console"`
	Environment        string   `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel           string   `envconfig:"LOG_LEVEL" default:"info"`
	JaegerEndpoint     string   `envconfig:"JAEGER_ENDPOINT"`
	TraceSampleRatio   float64  `envconfig:"TRACE_SAMPLE_RATIO" default:"1"`
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// ProductAPI returns the remote product API settings.
func (c *ConsoleConfig) ProductAPI() ServiceConfig {
	return ServiceConfig{
		Name:    "product-api",
		BaseURL: c.ProductAPIURL,
		Timeout: c.ProductAPITimeout,
	}
}

// IsDevelopment reports whether the console runs in development mode.
func (c *ConsoleConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// DatabaseSettings converts the DB_* keys for pkg/database.
func (c *ConsoleConfig) DatabaseSettings() database.Config {
	return database.Config{
		Driver:   c.StorageDriver,
		Host:     c.DBHost,
		Port:     c.DBPort,
		User:     c.DBUser,
		Password: c.DBPassword,
		DBName:   c.DBName,
		SSLMode:  c.DBSSLMode,
		Path:     c.DBPath,
	}
}

// Validate checks enumerated settings.
func (c *ConsoleConfig) Validate() error {
	switch c.StorageDriver {
	case StorageMemory, StorageSQLite, StoragePostgres:
	case StorageRedis:
		if c.RedisAddr == "" {
			return errors.New("STORAGE_DRIVER=redis requires REDIS_ADDR")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	switch c.CategoryMatch {
	case CategoryMatchExact, CategoryMatchFold:
	default:
		return fmt.Errorf("unknown CATEGORY_MATCH %q", c.CategoryMatch)
	}

	if strings.TrimSpace(c.ProductAPIURL) == "" {
		return errors.New("PRODUCT_API_URL must not be empty")
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	return nil
}

// LoadConfig loads an optional .env file and then the process environment.
func LoadConfig() (*ConsoleConfig, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Logger.Warn().Err(err).Msg("Error loading .env file (but continuing)")
	}

	var cfg ConsoleConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	cfg.ProductAPIURL = strings.TrimRight(cfg.ProductAPIURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
