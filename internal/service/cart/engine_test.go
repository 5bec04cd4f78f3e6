package cart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngineWithoutMetrics(
		memory.NewCartRepository(),
		memory.NewCartRepository(),
		memory.NewSeededProductCatalog(),
		nil,
	)
}

func TestEngine_GetCart_LazyMaterialization(t *testing.T) {
	engine := newTestEngine(t)
	owner := domain.AuthenticatedOwner("u1")

	cart, err := engine.GetCart(context.Background(), owner)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !cart.IsEmpty() {
		t.Fatalf("expected empty cart, got %+v", cart)
	}
	if cart.Version != 1 {
		t.Fatalf("expected persisted empty cart at version 1, got %d", cart.Version)
	}

	// Повторное чтение не пересохраняет корзину.
	again, err := engine.GetCart(context.Background(), owner)
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if again.Version != 1 {
		t.Fatalf("expected stable version 1, got %d", again.Version)
	}
}

func TestEngine_AddItem(t *testing.T) {
	engine := newTestEngine(t)
	owner := domain.AuthenticatedOwner("u1")

	cart, err := engine.AddItem(context.Background(), owner, "prod-headphones", 2)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(cart.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(cart.Lines))
	}
	if cart.Lines[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", cart.Lines[0].Quantity)
	}
	if cart.Total != 199.98 {
		t.Fatalf("expected total 199.98, got %v", cart.Total)
	}

	// Повторное добавление складывает количества.
	cart, err = engine.AddItem(context.Background(), owner, "prod-headphones", 1)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if cart.Lines[0].Quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", cart.Lines[0].Quantity)
	}
}

func TestEngine_AddItem_Validation(t *testing.T) {
	engine := newTestEngine(t)
	owner := domain.AuthenticatedOwner("u1")
	ctx := context.Background()

	if _, err := engine.AddItem(ctx, owner, "", 1); !errors.Is(err, domain.ErrProductIDRequired) {
		t.Fatalf("expected ErrProductIDRequired, got %v", err)
	}
	if _, err := engine.AddItem(ctx, owner, "prod-headphones", 0); !errors.Is(err, domain.ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	if _, err := engine.AddItem(ctx, owner, "no-such-product", 1); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
	if _, err := engine.AddItem(ctx, domain.OwnerKey{}, "prod-headphones", 1); !errors.Is(err, domain.ErrOwnerKeyInvalid) {
		t.Fatalf("expected ErrOwnerKeyInvalid, got %v", err)
	}

	// Неудачное добавление не материализует корзину.
	if _, err := engine.StoreFor(owner).Load(owner); !errors.Is(err, domain.ErrCartNotFound) {
		t.Fatalf("expected untouched storage, got %v", err)
	}
}

func TestEngine_UpdateQuantity(t *testing.T) {
	engine := newTestEngine(t)
	owner := domain.AnonymousOwner("s1")
	ctx := context.Background()

	if _, err := engine.AddItem(ctx, owner, "prod-coffee-mug", 2); err != nil {
		t.Fatalf("add: %v", err)
	}

	cart, err := engine.UpdateQuantity(ctx, owner, "prod-coffee-mug", 5)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if cart.Lines[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", cart.Lines[0].Quantity)
	}
	if cart.Total != 19.99*5 {
		t.Fatalf("expected total %v, got %v", 19.99*5, cart.Total)
	}

	// Нулевое количество удаляет позицию.
	cart, err = engine.UpdateQuantity(ctx, owner, "prod-coffee-mug", 0)
	if err != nil {
		t.Fatalf("update to zero: %v", err)
	}
	if !cart.IsEmpty() || cart.Total != 0 {
		t.Fatalf("expected empty cart, got %+v", cart)
	}
}

func TestEngine_UpdateQuantity_MissingLineIsNoop(t *testing.T) {
	engine := newTestEngine(t)
	owner := domain.AnonymousOwner("s1")
	ctx := context.Background()

	if _, err := engine.AddItem(ctx, owner, "prod-coffee-mug", 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	before, _ := engine.GetCart(ctx, owner)

	cart, err := engine.UpdateQuantity(ctx, owner, "missing", 3)
	if err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
	if cart.Version != before.Version {
		t.Fatalf("no-op must not bump version: %d != %d", cart.Version, before.Version)
	}
}

func TestEngine_RemoveItem(t *testing.T) {
	engine := newTestEngine(t)
	owner := domain.AuthenticatedOwner("u1")
	ctx := context.Background()

	if _, err := engine.AddItem(ctx, owner, "prod-laptop-bag", 1); err != nil {
		t.Fatalf("add: %v", err)
	}

	cart, err := engine.RemoveItem(ctx, owner, "prod-laptop-bag")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !cart.IsEmpty() {
		t.Fatalf("expected empty cart, got %+v", cart)
	}

	// Повторное удаление — успешный no-op.
	if _, err := engine.RemoveItem(ctx, owner, "prod-laptop-bag"); err != nil {
		t.Fatalf("second remove: %v", err)
	}
}

func TestEngine_StoreFor(t *testing.T) {
	durable := memory.NewCartRepository()
	session := memory.NewCartRepository()
	engine := NewEngineWithoutMetrics(durable, session, memory.NewSeededProductCatalog(), nil)

	if engine.StoreFor(domain.AuthenticatedOwner("u1")) != durable {
		t.Fatal("authenticated owner must use durable store")
	}
	if engine.StoreFor(domain.AnonymousOwner("s1")) != session {
		t.Fatal("anonymous owner must use session store")
	}
}

// conflictingStore подсовывает ErrCartVersionConflict первым N сохранениям.
type conflictingStore struct {
	domain.CartRepository
	mu        sync.Mutex
	conflicts int
	saves     int
}

func (s *conflictingStore) Save(cart domain.Cart) error {
	s.mu.Lock()
	s.saves++
	inject := s.conflicts > 0
	if inject {
		s.conflicts--
	}
	s.mu.Unlock()

	if inject {
		return domain.ErrCartVersionConflict
	}
	return s.CartRepository.Save(cart)
}

func TestEngine_RetriesOnVersionConflict(t *testing.T) {
	store := &conflictingStore{CartRepository: memory.NewCartRepository(), conflicts: 2}
	engine := NewEngineWithoutMetrics(store, memory.NewCartRepository(), memory.NewSeededProductCatalog(), nil)
	engine.SetRetryConfig(RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, BackoffFactor: 2})

	owner := domain.AuthenticatedOwner("u1")
	cart, err := engine.AddItem(context.Background(), owner, "prod-headphones", 1)
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if len(cart.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(cart.Lines))
	}
	if store.saves != 3 {
		t.Fatalf("expected 3 save attempts, got %d", store.saves)
	}
}

func TestEngine_GivesUpAfterMaxAttempts(t *testing.T) {
	store := &conflictingStore{CartRepository: memory.NewCartRepository(), conflicts: 10}
	engine := NewEngineWithoutMetrics(store, memory.NewCartRepository(), memory.NewSeededProductCatalog(), nil)
	engine.SetRetryConfig(RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 1})

	owner := domain.AuthenticatedOwner("u1")
	if _, err := engine.AddItem(context.Background(), owner, "prod-headphones", 1); !errors.Is(err, domain.ErrCartVersionConflict) {
		t.Fatalf("expected ErrCartVersionConflict, got %v", err)
	}
}

func TestEngine_ConcurrentAdds(t *testing.T) {
	engine := newTestEngine(t)
	owner := domain.AuthenticatedOwner("u1")
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			if _, err := engine.AddItem(ctx, owner, "prod-coffee-mug", 1); err != nil {
				t.Errorf("concurrent add: %v", err)
			}
		}()
	}
	wg.Wait()

	cart, err := engine.GetCart(ctx, owner)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(cart.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(cart.Lines))
	}
	if cart.Lines[0].Quantity != workers {
		t.Fatalf("expected quantity %d, got %d", workers, cart.Lines[0].Quantity)
	}
	if cart.Total != 19.99*float64(workers) {
		t.Fatalf("unexpected total %v", cart.Total)
	}
}
