package cart

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

// Имена операций для метрик и логов.
const (
	opGet    = "get"
	opAdd    = "add"
	opUpdate = "update"
	opRemove = "remove"
	opMerge  = "merge"
)

// Engine — движок корзины: применяет мутации add/update/remove и
// пересчёт Total одинаково для durable- и session-бэкенда. Выбор
// бэкенда делается по OwnerKey ровно один раз на операцию.
//
// Цикл load → mutate → recompute → save атомарен per-owner: внутри
// процесса его сериализует keyed mutex, между процессами — optimistic
// locking по Version с повтором при конфликте.
type Engine struct {
	durable domain.CartRepository
	session domain.CartRepository
	catalog domain.ProductCatalog
	logger  *log.Entry
	metrics *metrics.CartMetrics
	locks   *ownerLocks
	retry   RetryConfig
}

// NewEngine создаёт рабочий экземпляр движка корзины.
func NewEngine(
	durable domain.CartRepository,
	session domain.CartRepository,
	catalog domain.ProductCatalog,
	logger *log.Entry,
) *Engine {
	engine := NewEngineWithoutMetrics(durable, session, catalog, logger)
	engine.metrics = metrics.NewCartMetrics()
	return engine
}

// NewEngineWithoutMetrics создаёт движок без метрик (для тестов).
func NewEngineWithoutMetrics(
	durable domain.CartRepository,
	session domain.CartRepository,
	catalog domain.ProductCatalog,
	logger *log.Entry,
) *Engine {
	if logger == nil {
		logger = log.New().WithField("component", "cart-engine")
	}
	return &Engine{
		durable: durable,
		session: session,
		catalog: catalog,
		logger:  logger,
		locks:   newOwnerLocks(),
		retry:   DefaultRetryConfig().normalized(),
	}
}

// SetRetryConfig переопределяет параметры повторов (для тестов и тюнинга).
func (e *Engine) SetRetryConfig(cfg RetryConfig) {
	e.retry = cfg.normalized()
}

// GetCart возвращает корзину владельца, лениво материализуя пустую:
// первая загрузка сохраняет пустую корзину, чтобы последующие чтения
// были стабильны.
func (e *Engine) GetCart(ctx context.Context, owner domain.OwnerKey) (domain.Cart, error) {
	return e.mutate(ctx, opGet, owner, func(cart *domain.Cart) (bool, error) {
		return false, nil
	})
}

// AddItem добавляет товар в корзину. Снапшот позиции строится из
// каталога в момент вызова; если позиция уже есть, количества
// складываются. Ошибка каталога прерывает операцию без частичной
// мутации корзины.
func (e *Engine) AddItem(ctx context.Context, owner domain.OwnerKey, productID string, quantity int) (domain.Cart, error) {
	if productID == "" {
		return domain.Cart{}, domain.ErrProductIDRequired
	}
	if quantity < 1 {
		return domain.Cart{}, domain.ErrInvalidQuantity
	}

	product, err := e.catalog.Get(productID)
	if err != nil {
		e.recordError(opAdd)
		return domain.Cart{}, err
	}

	return e.mutate(ctx, opAdd, owner, func(cart *domain.Cart) (bool, error) {
		cart.MergeLine(product.SnapshotLine(quantity))
		return true, nil
	})
}

// UpdateQuantity выставляет количество позиции ровно в quantity.
// Значение <= 0 удаляет позицию; отсутствие позиции — успешный no-op,
// возвращающий текущую корзину (UI может гонять decrement с удалением).
func (e *Engine) UpdateQuantity(ctx context.Context, owner domain.OwnerKey, productID string, quantity int) (domain.Cart, error) {
	if productID == "" {
		return domain.Cart{}, domain.ErrProductIDRequired
	}

	return e.mutate(ctx, opUpdate, owner, func(cart *domain.Cart) (bool, error) {
		return cart.SetQuantity(productID, quantity), nil
	})
}

// RemoveItem удаляет позицию из корзины; отсутствие позиции не ошибка.
func (e *Engine) RemoveItem(ctx context.Context, owner domain.OwnerKey, productID string) (domain.Cart, error) {
	if productID == "" {
		return domain.Cart{}, domain.ErrProductIDRequired
	}

	return e.mutate(ctx, opRemove, owner, func(cart *domain.Cart) (bool, error) {
		return cart.RemoveLine(productID), nil
	})
}

// LockOwner сериализует внешнюю операцию с корзиной владельца тем же
// per-owner замком, что и мутации движка. Использует checkout, чтобы
// конвертация корзины в заказ не гонялась с add/update/remove.
func (e *Engine) LockOwner(owner domain.OwnerKey) func() {
	return e.locks.Acquire(owner.String())
}

// StoreFor возвращает бэкенд хранения для ключа владельца.
func (e *Engine) StoreFor(owner domain.OwnerKey) domain.CartRepository {
	if owner.IsAuthenticated() {
		return e.durable
	}
	return e.session
}

// mutate выполняет атомарный per-owner цикл load → apply → recompute → save.
// apply сообщает, изменилось ли состояние; неизменённая существующая корзина
// не пересохраняется. Конфликт версий повторяется с экспоненциальной задержкой.
func (e *Engine) mutate(ctx context.Context, op string, owner domain.OwnerKey, apply func(*domain.Cart) (bool, error)) (domain.Cart, error) {
	start := time.Now()

	if err := owner.Validate(); err != nil {
		e.recordError(op)
		return domain.Cart{}, err
	}

	release := e.locks.Acquire(owner.String())
	defer release()

	store := e.StoreFor(owner)
	delay := e.retry.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= e.retry.MaxAttempts; attempt++ {
		cart, created, err := e.loadOrCreate(store, owner)
		if err != nil {
			e.recordError(op)
			return domain.Cart{}, err
		}

		changed, err := apply(&cart)
		if err != nil {
			e.recordError(op)
			return domain.Cart{}, err
		}

		if !changed && !created {
			e.recordSuccess(op, start)
			return cart, nil
		}

		cart.Recalculate()
		cart.Touch(time.Now())

		if err := store.Save(cart); err != nil {
			if domain.IsVersionConflict(err) {
				lastErr = err
				if e.metrics != nil {
					e.metrics.RecordConflictRetry()
				}
				e.logger.WithFields(log.Fields{
					"op":      op,
					"owner":   owner.String(),
					"attempt": attempt,
				}).Warn("cart version conflict, retrying")

				if !sleepCtx(ctx, delay) {
					e.recordError(op)
					return domain.Cart{}, ctx.Err()
				}
				delay = e.retry.nextDelay(delay)
				continue
			}
			e.recordError(op)
			return domain.Cart{}, err
		}

		// Save инкрементирует сохранённую версию во всех бэкендах.
		cart.Version++
		e.recordSuccess(op, start)
		return cart, nil
	}

	e.recordError(op)
	return domain.Cart{}, lastErr
}

func (e *Engine) loadOrCreate(store domain.CartRepository, owner domain.OwnerKey) (domain.Cart, bool, error) {
	cart, err := store.Load(owner)
	if err == nil {
		return cart, false, nil
	}
	if domain.IsNotFound(err) {
		return domain.NewCart(owner), true, nil
	}
	return domain.Cart{}, false, err
}

func (e *Engine) recordSuccess(op string, start time.Time) {
	if e.metrics == nil {
		return
	}
	e.metrics.RecordMutation(op)
	e.metrics.RecordMutationDuration(op, time.Since(start))
}

func (e *Engine) recordError(op string) {
	if e.metrics != nil {
		e.metrics.RecordMutationError(op)
	}
}

// sleepCtx ждёт delay или отмену контекста; возвращает false при отмене.
func sleepCtx(ctx context.Context, delay time.Duration) bool {
	if delay <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
