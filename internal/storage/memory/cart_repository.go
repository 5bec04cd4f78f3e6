package memory

import (
	"sync"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// cartRepositoryInMemory — in-memory реализация CartRepository.
// Используется в тестах и как session-бэкенд, когда Redis не настроен.
type cartRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Cart
}

// NewCartRepository возвращает in-memory хранилище корзин.
func NewCartRepository() domain.CartRepository {
	return &cartRepositoryInMemory{
		items: make(map[string]domain.Cart),
	}
}

// Load возвращает корзину владельца или ErrCartNotFound.
func (r *cartRepositoryInMemory) Load(owner domain.OwnerKey) (domain.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cart, ok := r.items[owner.String()]
	if !ok {
		return domain.Cart{}, domain.ErrCartNotFound
	}
	return cloneCart(cart), nil
}

// Save сохраняет корзину целиком с проверкой версии. Version из переданной
// корзины должен совпадать с сохранённым (0 для новой записи), иначе
// возвращается ErrCartVersionConflict.
func (r *cartRepositoryInMemory) Save(cart domain.Cart) error {
	if err := cart.OwnerKey.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := cart.OwnerKey.String()
	stored, exists := r.items[key]
	if exists && stored.Version != cart.Version {
		return domain.ErrCartVersionConflict
	}
	if !exists && cart.Version != 0 {
		return domain.ErrCartVersionConflict
	}

	cart.Version++
	// Сохраняем копию, чтобы избежать непредсказуемых мутаций извне.
	r.items[key] = cloneCart(cart)
	return nil
}

// Clear опустошает корзину владельца. Отсутствие корзины — no-op.
func (r *cartRepositoryInMemory) Clear(owner domain.OwnerKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := owner.String()
	stored, ok := r.items[key]
	if !ok {
		return nil
	}

	stored.Lines = []domain.CartLine{}
	stored.Total = 0
	stored.Version++
	stored.UpdatedAt = time.Now().UTC()
	r.items[key] = stored
	return nil
}

func cloneCart(src domain.Cart) domain.Cart {
	dst := src
	dst.Lines = make([]domain.CartLine, len(src.Lines))
	copy(dst.Lines, src.Lines)
	return dst
}

var _ domain.CartRepository = (*cartRepositoryInMemory)(nil)
