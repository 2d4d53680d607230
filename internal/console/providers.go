// Package console wires the catalog console: storage, product API client, query cache,
// change events, sessions, the UI app and the ops listener.
package console

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/tair/catalog-console/internal/catalog/cache"
	"github.com/tair/catalog-console/internal/catalog/events"
	"github.com/tair/catalog-console/internal/catalog/gateway"
	"github.com/tair/catalog-console/internal/catalog/listing"
	"github.com/tair/catalog-console/internal/catalog/repository"
	"github.com/tair/catalog-console/internal/config"
	delivery "github.com/tair/catalog-console/internal/console/delivery/http"
	"github.com/tair/catalog-console/internal/console/session"
	"github.com/tair/catalog-console/internal/ops"
	"github.com/tair/catalog-console/pkg/database"
	"github.com/tair/catalog-console/pkg/logger"
	"github.com/tair/catalog-console/pkg/storage"
)

// InstanceID identifies this console process in catalog change events.
type InstanceID string

// Console is the assembled application.
type Console struct {
	Config   *config.ConsoleConfig
	App      *fiber.App
	Ops      *http.Server
	Registry *session.Registry
	Products *repository.Products
	// Consumer is nil when Kafka is not configured.
	Consumer *events.Consumer
}

// NewConsole collects the assembled parts.
func NewConsole(
	cfg *config.ConsoleConfig,
	app *fiber.App,
	opsServer *http.Server,
	registry *session.Registry,
	products *repository.Products,
	consumer *events.Consumer,
) *Console {
	return &Console{
		Config:   cfg,
		App:      app,
		Ops:      opsServer,
		Registry: registry,
		Products: products,
		Consumer: consumer,
	}
}

// ProvideInstanceID generates the id of this process
func ProvideInstanceID() InstanceID {
	return InstanceID(uuid.NewString())
}

// ProvideRegisterer provides the process-wide Prometheus registerer
func ProvideRegisterer() prometheus.Registerer {
	return prometheus.DefaultRegisterer
}

// ProvideGatherer provides the registry served on /metrics
func ProvideGatherer() prometheus.Gatherer {
	return prometheus.DefaultGatherer
}

// ProvideRedisClient connects to Redis when REDIS_ADDR is set. Without it, or when Redis
// is unreachable and not the storage driver, it returns nil and rate limiting is off.
func ProvideRedisClient(cfg *config.ConsoleConfig) (*redis.Client, func(), error) {
	if cfg.RedisAddr == "" {
		return nil, func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		if cfg.StorageDriver == config.StorageRedis {
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		logger.Logger.Warn().
			Err(err).
			Str("redis_addr", cfg.RedisAddr).
			Msg("Failed to connect to Redis - rate limiting will be disabled")
		return nil, func() {}, nil
	}

	logger.Logger.Info().Str("redis_addr", cfg.RedisAddr).Msg("Connected to Redis")
	return client, func() {
		if err := client.Close(); err != nil {
			logger.Logger.Error().Err(err).Msg("Failed to close Redis client")
		}
	}, nil
}

// ProvideStorage opens the favorites storage selected by STORAGE_DRIVER
func ProvideStorage(cfg *config.ConsoleConfig, redisClient *redis.Client) (storage.Storage, func(), error) {
	switch cfg.StorageDriver {
	case config.StorageRedis:
		store := storage.NewRedis(redisClient, storage.DefaultRedisPrefix)
		return storage.WithTracing(store, cfg.StorageDriver), func() {}, nil

	case config.StorageSQLite, config.StoragePostgres:
		db, err := database.NewGormConnection(cfg.DatabaseSettings())
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get database instance: %w", err)
		}
		cleanup := func() {
			if err := sqlDB.Close(); err != nil {
				logger.Logger.Error().Err(err).Msg("Failed to close database")
			}
		}

		store := storage.NewSQL(db)
		if err := store.AutoMigrate(); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Logger.Info().Str("driver", cfg.StorageDriver).Msg("Database storage initialized")
		return storage.WithTracing(store, cfg.StorageDriver), cleanup, nil

	default:
		logger.Logger.Warn().Msg("Using in-memory storage, favorites are lost on restart")
		return storage.NewMemory(), func() {}, nil
	}
}

// ProvideGatewayClient creates the product API client
func ProvideGatewayClient(cfg *config.ConsoleConfig, reg prometheus.Registerer) *gateway.Client {
	api := cfg.ProductAPI()
	return gateway.NewClient(gateway.Config{
		BaseURL: api.BaseURL,
		Timeout: api.Timeout,
	}, reg)
}

// ProvideCache creates the query cache
func ProvideCache(reg prometheus.Registerer) *cache.Client {
	return cache.New(reg)
}

// ProvideChangePublisher connects the Kafka producer. It returns a nil interface when
// no brokers are configured.
func ProvideChangePublisher(cfg *config.ConsoleConfig, id InstanceID) (repository.ChangePublisher, func(), error) {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Logger.Info().Msg("Kafka not configured, catalog change events disabled")
		return nil, func() {}, nil
	}

	publisher, err := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, string(id))
	if err != nil {
		return nil, nil, err
	}
	return publisher, func() {
		if err := publisher.Close(); err != nil {
			logger.Logger.Error().Err(err).Msg("Failed to close Kafka publisher")
		}
	}, nil
}

// ProvideProducts creates the product repository
func ProvideProducts(api *gateway.Client, c *cache.Client, publisher repository.ChangePublisher) *repository.Products {
	return repository.NewProducts(api, c, publisher)
}

// ProvideConsumer joins the change-event consumer group and routes every event type to
// the repository. It returns nil when no brokers are configured.
func ProvideConsumer(cfg *config.ConsoleConfig, id InstanceID, products *repository.Products) (*events.Consumer, func(), error) {
	if len(cfg.KafkaBrokers) == 0 {
		return nil, func() {}, nil
	}

	consumer, err := events.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, string(id))
	if err != nil {
		return nil, nil, err
	}
	for _, eventType := range events.EventTypes {
		consumer.RegisterHandler(eventType, products.HandleChange)
	}
	return consumer, func() {
		if err := consumer.Close(); err != nil {
			logger.Logger.Error().Err(err).Msg("Failed to close Kafka consumer")
		}
	}, nil
}

func categoryMatch(cfg *config.ConsoleConfig) listing.CategoryMatch {
	return listing.ParseCategoryMatch(cfg.CategoryMatch)
}

// ProvideRegistry creates the session registry
func ProvideRegistry(cfg *config.ConsoleConfig, products *repository.Products, store storage.Storage) *session.Registry {
	return session.NewRegistry(products, store, session.Options{CategoryMatch: categoryMatch(cfg)}, cfg.SessionTTL)
}

// ProvideHandler creates the console HTTP handler
func ProvideHandler(cfg *config.ConsoleConfig, registry *session.Registry, products *repository.Products) *delivery.Handler {
	return delivery.NewHandler(registry, products, delivery.HandlerConfig{
		CurrencySymbol: cfg.CurrencySymbol,
		CategoryMatch:  categoryMatch(cfg),
		CookieTTL:      cfg.SessionTTL,
	})
}

// ProvideApp creates the console Fiber app
func ProvideApp(cfg *config.ConsoleConfig, h *delivery.Handler, redisClient *redis.Client, reg prometheus.Registerer) *fiber.App {
	return delivery.NewApp(h, delivery.ServerConfig{
		ServiceName:     cfg.ServiceName,
		RateLimitMax:    cfg.RateLimitMax,
		RateLimitWindow: cfg.RateLimitWindow,
	}, redisClient, reg)
}

// ProvideHealthChecker checks the product API and the storage
func ProvideHealthChecker(cfg *config.ConsoleConfig, api *gateway.Client, store storage.Storage) *ops.HealthChecker {
	return ops.NewHealthChecker(cfg.ServiceName, map[string]ops.Pinger{
		"product-api": api,
		"storage":     store,
	})
}

// ProvideOpsServer creates the metrics and health listener
func ProvideOpsServer(cfg *config.ConsoleConfig, checker *ops.HealthChecker, gatherer prometheus.Gatherer) *http.Server {
	return ops.NewServer(":"+cfg.OpsPort, ops.NewRouter(checker, gatherer, cfg.CORSAllowedOrigins))
}
