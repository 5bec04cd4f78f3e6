package memory

import (
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// orderRepositoryInMemory — простая in-memory реализация OrderRepository.
type orderRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Order
}

// NewOrderRepository возвращает in-memory историю заказов для локальной разработки и тестов.
func NewOrderRepository() domain.OrderRepository {
	return &orderRepositoryInMemory{
		items: make(map[string]domain.Order),
	}
}

// Create добавляет заказ в историю. Повторная запись того же ID — ошибка.
func (r *orderRepositoryInMemory) Create(order domain.Order) error {
	if order.ID == "" {
		return domain.ErrOrderIDRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[order.ID]; exists {
		return domain.ErrOrderAlreadyExists
	}
	// Сохраняем копию, чтобы история оставалась неизменяемой извне.
	r.items[order.ID] = cloneOrder(order)
	return nil
}

// Get возвращает заказ или ErrOrderNotFound, если его нет.
func (r *orderRepositoryInMemory) Get(id string) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.items[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

// ListByOwner возвращает заказы владельца от новых к старым, ограничивая выборку limit (если >0).
func (r *orderRepositoryInMemory) ListByOwner(owner domain.OwnerKey, limit int) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := owner.String()
	result := make([]domain.Order, 0, len(r.items))
	for _, order := range r.items {
		if order.OwnerKey.String() != key {
			continue
		}
		result = append(result, cloneOrder(order))
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].PlacedAt.Equal(result[j].PlacedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].PlacedAt.After(result[j].PlacedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func cloneOrder(src domain.Order) domain.Order {
	dst := src
	dst.Lines = make([]domain.CartLine, len(src.Lines))
	copy(dst.Lines, src.Lines)
	if src.ShippingAddress != nil {
		addr := *src.ShippingAddress
		dst.ShippingAddress = &addr
	}
	return dst
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
