package catalog

import (
	"errors"
	"sync"
	"testing"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

// countingCatalog считает обращения к источнику.
type countingCatalog struct {
	domain.ProductCatalog
	mu       sync.Mutex
	getCalls int
}

func (c *countingCatalog) Get(id string) (domain.Product, error) {
	c.mu.Lock()
	c.getCalls++
	c.mu.Unlock()
	return c.ProductCatalog.Get(id)
}

func TestCachedCatalog_PassThroughWithoutRedis(t *testing.T) {
	source := &countingCatalog{ProductCatalog: memory.NewSeededProductCatalog()}
	cached := NewCachedCatalog(source, nil, nil)

	product, err := cached.Get("prod-headphones")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if product.Name != "Wireless Headphones" {
		t.Fatalf("unexpected product: %+v", product)
	}

	products, err := cached.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(products) != 4 {
		t.Fatalf("expected 4 products, got %d", len(products))
	}
}

func TestCachedCatalog_GetErrorsPropagate(t *testing.T) {
	cached := NewCachedCatalog(memory.NewProductCatalog(), nil, nil)

	if _, err := cached.Get("ghost"); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
	if _, err := cached.Get(""); !errors.Is(err, domain.ErrProductIDRequired) {
		t.Fatalf("expected ErrProductIDRequired, got %v", err)
	}
}

func TestCachedCatalog_SingleflightCollapsesConcurrentGets(t *testing.T) {
	source := &countingCatalog{ProductCatalog: memory.NewSeededProductCatalog()}
	cached := NewCachedCatalog(source, nil, nil)

	const workers = 8
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			if _, err := cached.Get("prod-smartphone"); err != nil {
				t.Errorf("get: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	source.mu.Lock()
	calls := source.getCalls
	source.mu.Unlock()
	// Без кэша singleflight всё ещё схлопывает одновременные промахи:
	// обращений к источнику заметно меньше, чем горутин.
	if calls > workers {
		t.Fatalf("expected at most %d source calls, got %d", workers, calls)
	}
	if calls == 0 {
		t.Fatal("expected at least one source call")
	}
}

func TestCachedCatalog_InvalidateWithoutRedisIsNoop(t *testing.T) {
	cached := NewCachedCatalog(memory.NewSeededProductCatalog(), nil, nil)
	if err := cached.Invalidate("prod-headphones"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
}
