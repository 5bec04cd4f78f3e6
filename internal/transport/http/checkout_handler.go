package http

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/cart"
	"github.com/vladislavdragonenkov/storefront/internal/service/checkout"
)

// CheckoutHandler обслуживает checkout и merge-on-sign-in.
type CheckoutHandler struct {
	checkout *checkout.Service
	engine   *cart.Engine
	logger   *log.Entry
}

// NewCheckoutHandler создаёт хендлер checkout.
func NewCheckoutHandler(service *checkout.Service, engine *cart.Engine, logger *log.Entry) *CheckoutHandler {
	if logger == nil {
		logger = log.New().WithField("component", "checkout-handler")
	}
	return &CheckoutHandler{checkout: service, engine: engine, logger: logger}
}

// CheckoutRequestDTO — тело POST /api/cart/checkout.
type CheckoutRequestDTO struct {
	ShippingAddress *domain.Address `json:"shipping_address,omitempty"`
}

// CheckoutResponseDTO — подтверждение оформленного заказа.
type CheckoutResponseDTO struct {
	OrderID string  `json:"order_id"`
	Total   float64 `json:"total"`
	Message string  `json:"message"`
}

// MergeRequestDTO — тело POST /api/cart/merge.
type MergeRequestDTO struct {
	SessionToken string `json:"session_token"`
}

// Checkout обрабатывает POST /api/cart/checkout.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var req CheckoutRequestDTO
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
			return
		}
	}

	confirmation, err := h.checkout.Checkout(r.Context(), owner, req.ShippingAddress)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, CheckoutResponseDTO{
		OrderID: confirmation.OrderID,
		Total:   confirmation.Total,
		Message: confirmation.Message,
	})
}

// Merge обрабатывает POST /api/cart/merge: переносит анонимную корзину
// в корзину авторизованного пользователя после входа.
func (h *CheckoutHandler) Merge(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req MergeRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	sessionToken := req.SessionToken
	if sessionToken == "" {
		sessionToken = r.Header.Get(sessionTokenHeader)
	}
	if sessionToken == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "session_token is required")
		return
	}

	merged, err := h.engine.MergeOnSignIn(r.Context(), sessionToken, owner.ID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(merged))
}
