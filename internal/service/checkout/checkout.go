package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/service/cart"
)

const (
	clearMaxAttempts = 5
	clearBaseDelay   = 50 * time.Millisecond

	messageCompleted = "Order placed successfully!"
	messageGuest     = "Order placed successfully! (guest checkout)"
)

// Confirmation — результат checkout, возвращаемый покупателю.
// Для анонимной сессии OrderID локальный и в историю заказов не попадает.
type Confirmation struct {
	OrderID  string        `json:"order_id"`
	Total    float64       `json:"total"`
	Message  string        `json:"message"`
	PlacedAt time.Time     `json:"placed_at"`
	Order    *domain.Order `json:"-"`
}

// Service выполняет единственный необратимый переход: корзина → заказ.
type Service struct {
	engine  *cart.Engine
	orders  domain.OrderRepository
	outbox  domain.OutboxRepository
	logger  *log.Entry
	metrics *metrics.CartMetrics
}

// NewService создаёт checkout-сервис.
func NewService(
	engine *cart.Engine,
	orders domain.OrderRepository,
	outbox domain.OutboxRepository,
	logger *log.Entry,
) *Service {
	service := NewServiceWithoutMetrics(engine, orders, outbox, logger)
	service.metrics = metrics.NewCartMetrics()
	return service
}

// NewServiceWithoutMetrics создаёт checkout-сервис без метрик (для тестов).
func NewServiceWithoutMetrics(
	engine *cart.Engine,
	orders domain.OrderRepository,
	outbox domain.OutboxRepository,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "checkout")
	}
	return &Service{
		engine: engine,
		orders: orders,
		outbox: outbox,
		logger: logger,
	}
}

// Checkout конвертирует корзину владельца в неизменяемый заказ и очищает
// её. Операция выполняется под тем же per-owner замком, что и мутации
// движка, поэтому не гоняется с add/update/remove. Пустая корзина
// отклоняется до каких-либо побочных эффектов.
//
// Для авторизованного владельца: заказ сохраняется в историю, событие
// order.placed уходит в outbox, после чего корзина очищается с повтором
// до успеха — checkout не считается завершённым, пока не выполнены обе
// половины. Повторная очистка пустой корзины — no-op, поэтому retry
// идемпотентен.
//
// Анонимный checkout — вырожденный локальный вариант: он синтезирует
// локальный идентификатор, ничего не пишет в историю и адрес не
// сохраняет.
func (s *Service) Checkout(ctx context.Context, owner domain.OwnerKey, address *domain.Address) (Confirmation, error) {
	start := time.Now()

	if err := owner.Validate(); err != nil {
		s.recordFailed()
		return Confirmation{}, err
	}

	release := s.engine.LockOwner(owner)
	defer release()

	store := s.engine.StoreFor(owner)

	current, err := store.Load(owner)
	if err != nil {
		if domain.IsNotFound(err) {
			s.recordRejected()
			return Confirmation{}, domain.ErrEmptyCart
		}
		s.recordFailed()
		return Confirmation{}, err
	}
	if current.IsEmpty() {
		s.recordRejected()
		return Confirmation{}, domain.ErrEmptyCart
	}

	now := time.Now().UTC()

	if !owner.IsAuthenticated() {
		if err := s.clearWithRetry(ctx, store, owner); err != nil {
			s.recordFailed()
			return Confirmation{}, err
		}
		s.recordCompleted(start)
		return Confirmation{
			OrderID:  "local-" + uuid.NewString(),
			Total:    current.Total,
			Message:  messageGuest,
			PlacedAt: now,
		}, nil
	}

	order := domain.Order{
		ID:              uuid.NewString(),
		OwnerKey:        owner,
		Lines:           current.CloneLines(),
		Total:           current.Total,
		Status:          domain.OrderStatusCompleted,
		PlacedAt:        now,
		ShippingAddress: address,
	}
	if errs := order.ValidateInvariants(); len(errs) > 0 {
		s.recordFailed()
		return Confirmation{}, fmt.Errorf("order invariants violated: %v", errs)
	}

	if err := s.orders.Create(order); err != nil {
		s.recordFailed()
		return Confirmation{}, fmt.Errorf("persist order: %w", err)
	}

	s.enqueuePlacedEvent(order)

	if err := s.clearWithRetry(ctx, store, owner); err != nil {
		// Заказ уже сохранён: неочищенную корзину нельзя оставлять,
		// иначе повторный checkout продублирует заказ.
		s.recordFailed()
		return Confirmation{}, fmt.Errorf("clear cart after checkout: %w", err)
	}

	s.recordCompleted(start)
	s.logger.WithFields(log.Fields{
		"order_id": order.ID,
		"owner":    owner.String(),
		"total":    order.Total,
	}).Info("checkout completed")

	return Confirmation{
		OrderID:  order.ID,
		Total:    order.Total,
		Message:  messageCompleted,
		PlacedAt: now,
		Order:    &order,
	}, nil
}

// enqueuePlacedEvent кладёт событие order.placed в transactional outbox.
// Сбой outbox не валит checkout: заказ уже сохранён и неизменяем,
// поэтому ошибка только логируется.
func (s *Service) enqueuePlacedEvent(order domain.Order) {
	if s.outbox == nil {
		return
	}

	event := kafka.NewOrderEvent(kafka.EventTypeOrderPlaced, order.ID, order.OwnerKey.String(), order.Total, map[string]interface{}{
		"lines": len(order.Lines),
	})
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Warn("failed to marshal order.placed event")
		return
	}

	if _, err := s.outbox.Enqueue(domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   order.ID,
		EventType:     string(kafka.EventTypeOrderPlaced),
		Payload:       payload,
	}); err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Warn("failed to enqueue order.placed event")
	}
}

// clearWithRetry очищает корзину с экспоненциальной задержкой между
// попытками. Очистка идемпотентна, так что повтор безопасен.
func (s *Service) clearWithRetry(ctx context.Context, store domain.CartRepository, owner domain.OwnerKey) error {
	delay := clearBaseDelay
	var lastErr error

	for attempt := 1; attempt <= clearMaxAttempts; attempt++ {
		lastErr = store.Clear(owner)
		if lastErr == nil {
			return nil
		}

		s.logger.WithError(lastErr).WithFields(log.Fields{
			"owner":   owner.String(),
			"attempt": attempt,
		}).Warn("failed to clear cart, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return lastErr
}

func (s *Service) recordCompleted(start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordCheckoutCompleted()
	s.metrics.RecordCheckoutDuration(time.Since(start))
}

func (s *Service) recordRejected() {
	if s.metrics != nil {
		s.metrics.RecordCheckoutRejected()
	}
}

func (s *Service) recordFailed() {
	if s.metrics != nil {
		s.metrics.RecordCheckoutFailed()
	}
}
