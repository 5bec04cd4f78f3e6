package memory

import (
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// productCatalogInMemory — in-memory витрина каталога.
type productCatalogInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Product
}

// NewProductCatalog возвращает пустую in-memory витрину.
func NewProductCatalog() *productCatalogInMemory {
	return &productCatalogInMemory{
		items: make(map[string]domain.Product),
	}
}

// NewSeededProductCatalog возвращает витрину с демонстрационными товарами.
func NewSeededProductCatalog() *productCatalogInMemory {
	catalog := NewProductCatalog()
	for _, product := range domain.SampleProducts() {
		catalog.Put(product)
	}
	return catalog
}

// Put добавляет или заменяет товар на витрине.
func (c *productCatalogInMemory) Put(product domain.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[product.ID] = product
}

// Get возвращает товар или ErrProductNotFound.
func (c *productCatalogInMemory) Get(id string) (domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	product, ok := c.items[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

// List возвращает товары витрины в стабильном порядке по имени.
func (c *productCatalogInMemory) List() ([]domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]domain.Product, 0, len(c.items))
	for _, product := range c.items {
		result = append(result, product)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

var _ domain.ProductCatalog = (*productCatalogInMemory)(nil)
