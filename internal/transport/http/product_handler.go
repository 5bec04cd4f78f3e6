package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// ProductHandler обслуживает публичную витрину каталога.
type ProductHandler struct {
	catalog domain.ProductCatalog
	logger  *log.Entry
}

// NewProductHandler создаёт хендлер каталога.
func NewProductHandler(catalog domain.ProductCatalog, logger *log.Entry) *ProductHandler {
	if logger == nil {
		logger = log.New().WithField("component", "product-handler")
	}
	return &ProductHandler{catalog: catalog, logger: logger}
}

// ProductResponseDTO — товар в ответе API.
type ProductResponseDTO struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description,omitempty"`
	ImageURL    string  `json:"image_url,omitempty"`
	Category    string  `json:"category,omitempty"`
	Stock       int     `json:"stock"`
}

func toProductResponse(p domain.Product) ProductResponseDTO {
	return ProductResponseDTO{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		Category:    p.Category,
		Stock:       p.Stock,
	}
}

// List обрабатывает GET /api/products.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.List()
	if err != nil {
		h.logger.WithError(err).Warn("failed to list products")
		respondDomainError(w, err)
		return
	}

	responses := make([]ProductResponseDTO, 0, len(products))
	for _, product := range products {
		responses = append(responses, toProductResponse(product))
	}
	respondJSON(w, http.StatusOK, responses)
}

// Get обрабатывает GET /api/products/{productID}.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.Get(chi.URLParam(r, "productID"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toProductResponse(product))
}
