package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/cart"
)

// CartHandler обслуживает маршруты корзины.
type CartHandler struct {
	engine *cart.Engine
	logger *log.Entry
}

// NewCartHandler создаёт хендлер корзины.
func NewCartHandler(engine *cart.Engine, logger *log.Entry) *CartHandler {
	if logger == nil {
		logger = log.New().WithField("component", "cart-handler")
	}
	return &CartHandler{engine: engine, logger: logger}
}

// AddItemRequestDTO — тело POST /api/cart/add.
type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// UpdateQuantityRequestDTO — тело PUT /api/cart/update.
type UpdateQuantityRequestDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CartLineDTO — позиция корзины в ответе API.
type CartLineDTO struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"price"`
	ImageURL  string  `json:"image_url,omitempty"`
	Category  string  `json:"category,omitempty"`
	Quantity  int     `json:"quantity"`
	LineTotal float64 `json:"line_total"`
}

// CartResponseDTO — корзина вместе с витринными итогами.
type CartResponseDTO struct {
	Owner   string               `json:"owner"`
	Lines   []CartLineDTO        `json:"items"`
	Total   float64              `json:"total"`
	Totals  domain.DisplayTotals `json:"totals"`
	Version int64                `json:"version"`
}

func toCartResponse(c domain.Cart) CartResponseDTO {
	lines := make([]CartLineDTO, 0, len(c.Lines))
	for _, line := range c.Lines {
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
	return CartResponseDTO{
		Owner:   c.OwnerKey.String(),
		Lines:   lines,
		Total:   c.Total,
		Totals:  domain.CalcDisplayTotals(c.Total),
		Version: c.Version,
	}
}

// GetCart обрабатывает GET /api/cart.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	current, err := h.engine.GetCart(r.Context(), owner)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(current))
}

// AddItem обрабатывает POST /api/cart/add.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	current, err := h.engine.AddItem(r.Context(), owner, req.ProductID, req.Quantity)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(current))
}

// UpdateQuantity обрабатывает PUT /api/cart/update.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	current, err := h.engine.UpdateQuantity(r.Context(), owner, req.ProductID, req.Quantity)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(current))
}

// RemoveItem обрабатывает DELETE /api/cart/remove/{productID}.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	productID := chi.URLParam(r, "productID")
	current, err := h.engine.RemoveItem(r.Context(), owner, productID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(current))
}
