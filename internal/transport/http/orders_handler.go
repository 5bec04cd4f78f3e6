package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const defaultOrdersLimit = 50

// OrdersHandler обслуживает историю заказов авторизованного пользователя.
type OrdersHandler struct {
	orders domain.OrderRepository
	logger *log.Entry
}

// NewOrdersHandler создаёт хендлер истории заказов.
func NewOrdersHandler(orders domain.OrderRepository, logger *log.Entry) *OrdersHandler {
	if logger == nil {
		logger = log.New().WithField("component", "orders-handler")
	}
	return &OrdersHandler{orders: orders, logger: logger}
}

// OrderResponseDTO — заказ в ответе API.
type OrderResponseDTO struct {
	ID              string          `json:"id"`
	Lines           []CartLineDTO   `json:"items"`
	Total           float64         `json:"total"`
	Status          string          `json:"status"`
	PlacedAt        time.Time       `json:"placed_at"`
	ShippingAddress *domain.Address `json:"shipping_address,omitempty"`
}

func toOrderResponse(order domain.Order) OrderResponseDTO {
	lines := make([]CartLineDTO, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, CartLineDTO{
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			ImageURL:  line.ImageRef,
			Category:  line.Category,
			Quantity:  line.Quantity,
			LineTotal: line.LineTotal(),
		})
	}
	return OrderResponseDTO{
		ID:              order.ID,
		Lines:           lines,
		Total:           order.Total,
		Status:          string(order.Status),
		PlacedAt:        order.PlacedAt,
		ShippingAddress: order.ShippingAddress,
	}
}

// List обрабатывает GET /api/orders: заказы пользователя, новые первыми.
func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireUser(w, r)
	if !ok {
		return
	}

	orders, err := h.orders.ListByOwner(owner, defaultOrdersLimit)
	if err != nil {
		h.logger.WithError(err).WithField("owner", owner.String()).Warn("failed to list orders")
		respondDomainError(w, err)
		return
	}

	responses := make([]OrderResponseDTO, 0, len(orders))
	for _, order := range orders {
		responses = append(responses, toOrderResponse(order))
	}
	respondJSON(w, http.StatusOK, responses)
}

// Get обрабатывает GET /api/orders/{orderID}.
func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireUser(w, r)
	if !ok {
		return
	}

	orderID := chi.URLParam(r, "orderID")
	order, err := h.orders.Get(orderID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	// Чужой заказ неотличим от несуществующего.
	if order.OwnerKey != owner {
		respondDomainError(w, domain.ErrOrderNotFound)
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponse(order))
}
