package app

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
	"github.com/vladislavdragonenkov/storefront/internal/storage/postgres"
	redisstore "github.com/vladislavdragonenkov/storefront/internal/storage/redis"
)

// Dependencies содержит все зависимости приложения.
type Dependencies struct {
	Carts       domain.CartRepository
	Sessions    domain.CartRepository
	Orders      domain.OrderRepository
	Outbox      domain.OutboxRepository
	Idempotency domain.IdempotencyRepository
	Catalog     domain.ProductCatalog
	Logger      *log.Entry

	pgStore     *postgres.Store
	redisClient *goredis.Client
}

// NewDependencies собирает хранилища по конфигурации. Postgres держит
// корзины пользователей, заказы, outbox и idempotency-ключи; Redis
// обслуживает анонимные сессии; memory-бэкенды подменяют и то и другое
// при локальном запуске без инфраструктуры.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	deps := &Dependencies{Logger: logger}

	switch cfg.StorageDriver {
	case StorageDriverPostgres:
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if cfg.PostgresAutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("ensure schema: %w", err)
			}
		}
		deps.pgStore = store
		deps.Carts = postgres.NewCartRepository(store)
		deps.Orders = postgres.NewOrderRepository(store)
		deps.Outbox = postgres.NewOutboxRepository(store)
		deps.Idempotency = postgres.NewIdempotencyRepository(store)
		deps.Catalog = postgres.NewProductCatalog(store)
		logger.Info("postgres storage initialized")
	case StorageDriverMemory:
		deps.Carts = memory.NewCartRepository()
		deps.Orders = memory.NewOrderRepository()
		deps.Outbox = memory.NewOutboxRepository()
		deps.Idempotency = memory.NewIdempotencyRepository()
		deps.Catalog = memory.NewSeededProductCatalog()
		logger.Info("in-memory storage initialized")
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}

	if cfg.RedisAddr != "" {
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("redis unavailable, anonymous sessions fall back to memory")
			_ = client.Close()
		} else {
			deps.redisClient = client
			deps.Sessions = redisstore.NewCartStore(client)
			deps.Catalog = catalog.NewCachedCatalog(deps.Catalog, client, logger.WithField("component", "cached-catalog"))
			logger.WithField("addr", cfg.RedisAddr).Info("redis session store initialized")
		}
	}
	if deps.Sessions == nil {
		deps.Sessions = memory.NewCartRepository()
	}

	return deps, nil
}

// Close освобождает внешние соединения.
func (d *Dependencies) Close() {
	if d.redisClient != nil {
		if err := d.redisClient.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close redis client")
		}
	}
	if d.pgStore != nil {
		if err := d.pgStore.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close postgres store")
		}
	}
}

// PostgresStore возвращает postgres store для health-проверок (nil для memory).
func (d *Dependencies) PostgresStore() *postgres.Store { return d.pgStore }

// RedisClient возвращает redis client для health-проверок (nil без Redis).
func (d *Dependencies) RedisClient() *goredis.Client { return d.redisClient }
