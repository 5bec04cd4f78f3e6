package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const (
	productKeyPrefix = "storefront:product:"
	productListKey   = "storefront:products"

	cacheOpTimeout  = 2 * time.Second
	defaultCacheTTL = 5 * time.Minute
)

// CachedCatalog — read-through кэш поверх источника каталога. Промахи
// схлопываются через singleflight, чтобы параллельные запросы одного
// товара не били в источник одновременно. Недоступный Redis деградирует
// до прямого чтения из источника.
type CachedCatalog struct {
	source domain.ProductCatalog
	client *redis.Client
	group  singleflight.Group
	ttl    time.Duration
	logger *log.Entry
}

var _ domain.ProductCatalog = (*CachedCatalog)(nil)

// NewCachedCatalog создаёт кэширующую обёртку каталога.
func NewCachedCatalog(source domain.ProductCatalog, client *redis.Client, logger *log.Entry) *CachedCatalog {
	if logger == nil {
		logger = log.New().WithField("component", "cached-catalog")
	}
	return &CachedCatalog{
		source: source,
		client: client,
		ttl:    defaultCacheTTL,
		logger: logger,
	}
}

// SetTTL переопределяет время жизни кэша (для тестов).
func (c *CachedCatalog) SetTTL(ttl time.Duration) {
	if ttl > 0 {
		c.ttl = ttl
	}
}

// Get возвращает товар по идентификатору, сначала из кэша.
func (c *CachedCatalog) Get(id string) (domain.Product, error) {
	if id == "" {
		return domain.Product{}, domain.ErrProductIDRequired
	}

	if product, ok := c.cachedProduct(id); ok {
		return product, nil
	}

	value, err, _ := c.group.Do("product:"+id, func() (interface{}, error) {
		product, err := c.source.Get(id)
		if err != nil {
			return domain.Product{}, err
		}
		c.storeProduct(product)
		return product, nil
	})
	if err != nil {
		return domain.Product{}, err
	}
	return value.(domain.Product), nil
}

// List возвращает все товары витрины, сначала из кэша.
func (c *CachedCatalog) List() ([]domain.Product, error) {
	if products, ok := c.cachedList(); ok {
		return products, nil
	}

	value, err, _ := c.group.Do("products", func() (interface{}, error) {
		products, err := c.source.List()
		if err != nil {
			return nil, err
		}
		c.storeList(products)
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	return value.([]domain.Product), nil
}

// Invalidate сбрасывает кэш товара и списка после изменения каталога.
func (c *CachedCatalog) Invalidate(id string) error {
	if c.client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), cacheOpTimeout)
	defer cancel()

	keys := []string{productListKey}
	if id != "" {
		keys = append(keys, productKeyPrefix+id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate catalog cache: %w", err)
	}
	return nil
}

func (c *CachedCatalog) cachedProduct(id string) (domain.Product, bool) {
	if c.client == nil {
		return domain.Product{}, false
	}

	ctx, cancel := context.WithTimeout(context.Background(), cacheOpTimeout)
	defer cancel()

	raw, err := c.client.Get(ctx, productKeyPrefix+id).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WithError(err).WithField("product_id", id).Warn("catalog cache read failed")
		}
		return domain.Product{}, false
	}

	var product domain.Product
	if err := json.Unmarshal(raw, &product); err != nil {
		c.logger.WithError(err).WithField("product_id", id).Warn("corrupted catalog cache entry")
		return domain.Product{}, false
	}
	return product, true
}

func (c *CachedCatalog) storeProduct(product domain.Product) {
	if c.client == nil {
		return
	}

	raw, err := json.Marshal(product)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), cacheOpTimeout)
	defer cancel()

	if err := c.client.Set(ctx, productKeyPrefix+product.ID, raw, c.ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("product_id", product.ID).Warn("catalog cache write failed")
	}
}

func (c *CachedCatalog) cachedList() ([]domain.Product, bool) {
	if c.client == nil {
		return nil, false
	}

	ctx, cancel := context.WithTimeout(context.Background(), cacheOpTimeout)
	defer cancel()

	raw, err := c.client.Get(ctx, productListKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WithError(err).Warn("catalog cache read failed")
		}
		return nil, false
	}

	var products []domain.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		c.logger.WithError(err).Warn("corrupted catalog cache entry")
		return nil, false
	}
	return products, true
}

func (c *CachedCatalog) storeList(products []domain.Product) {
	if c.client == nil {
		return
	}

	raw, err := json.Marshal(products)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), cacheOpTimeout)
	defer cancel()

	if err := c.client.Set(ctx, productListKey, raw, c.ttl).Err(); err != nil {
		c.logger.WithError(err).Warn("catalog cache write failed")
	}
}
