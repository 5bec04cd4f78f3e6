package domain

import "errors"

var (
	// Ошибка плохо сформированного ключа владельца корзины.
	ErrOwnerKeyInvalid = errors.New("owner key is invalid")
	// Ошибка отсутствующего идентификатора товара.
	ErrProductIDRequired = errors.New("product_id is required")
	// Ошибка некорректного количества при добавлении (< 1).
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	// ErrProductNotFound возвращается, если товара нет в каталоге.
	ErrProductNotFound = errors.New("product not found")
	// ErrCartNotFound возвращается, если корзина владельца ещё не материализована.
	ErrCartNotFound = errors.New("cart not found")
	// ErrCartVersionConflict сигнализирует о lost update при сохранении корзины.
	ErrCartVersionConflict = errors.New("cart version conflict")
	// ErrEmptyCart — попытка checkout пустой корзины.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrUnauthenticated — мутация durable-корзины без подтверждённой личности.
	ErrUnauthenticated = errors.New("authentication required")
	// Ошибка некорректного количества в позиции корзины (< 1 не представимо).
	ErrLineQuantityInvalid = errors.New("line quantity must be greater than zero")
	// Ошибка отрицательной цены снапшота.
	ErrLinePriceInvalid = errors.New("line price must be non-negative")
	// Ошибка дублирования позиции: на один productID допустима ровно одна строка.
	ErrDuplicateLine = errors.New("duplicate cart line for product")
	// Ошибка расхождения Total с суммой позиций.
	ErrTotalMismatch = errors.New("total does not match lines sum")
	// Ошибка отсутствующего идентификатора заказа.
	ErrOrderIDRequired = errors.New("order id is required")
	// Ошибка заказа без позиций: checkout никогда не создаёт пустой заказ.
	ErrOrderLinesRequired = errors.New("order must contain at least one line")
	// Ошибка неподдерживаемого статуса заказа.
	ErrOrderStatusInvalid = errors.New("order status is invalid")
	// ErrOrderNotFound возвращается, если заказ не найден в истории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderAlreadyExists возвращается при повторной записи того же ID:
	// история заказов append-only.
	ErrOrderAlreadyExists = errors.New("order already exists")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")

	// Ошибки идемпотентности checkout-запросов.
	ErrIdempotencyKeyRequired         = errors.New("idempotency key is required")
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	ErrIdempotencyKeyNotFound         = errors.New("idempotency key not found")
	ErrIdempotencyKeyAlreadyExists    = errors.New("idempotency key already exists")
	ErrIdempotencyHashMismatch        = errors.New("idempotency key reused with different request")
)

// IsVersionConflict проверяет, является ли ошибка конфликтом версий корзины.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrCartVersionConflict)
}

// IsNotFound проверяет ошибки отсутствия корзины или заказа.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCartNotFound) || errors.Is(err, ErrOrderNotFound)
}
