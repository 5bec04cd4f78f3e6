package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/cart"
	"github.com/vladislavdragonenkov/storefront/internal/service/checkout"
)

const defaultRequestTimeout = 30 * time.Second

// RouterDeps — зависимости HTTP маршрутизатора.
type RouterDeps struct {
	Engine      *cart.Engine
	Checkout    *checkout.Service
	Orders      domain.OrderRepository
	Catalog     domain.ProductCatalog
	Idempotency domain.IdempotencyRepository
	JWTSecret   []byte
	Logger      *log.Entry
}

// NewRouter собирает chi-роутер со всеми маршрутами API.
func NewRouter(deps RouterDeps) chi.Router {
	logger := deps.Logger
	if logger == nil {
		logger = log.New().WithField("component", "http")
	}

	auth := NewAuthenticator(deps.JWTSecret, logger)
	cartHandler := NewCartHandler(deps.Engine, logger)
	checkoutHandler := NewCheckoutHandler(deps.Checkout, deps.Engine, logger)
	ordersHandler := NewOrdersHandler(deps.Orders, logger)
	productHandler := NewProductHandler(deps.Catalog, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(defaultRequestTimeout))
	r.Use(auth.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", productHandler.List)
		r.Get("/products/{productID}", productHandler.Get)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Post("/add", cartHandler.AddItem)
			r.Put("/update", cartHandler.UpdateQuantity)
			r.Delete("/remove/{productID}", cartHandler.RemoveItem)
			r.Post("/checkout", WithIdempotency(deps.Idempotency, logger, checkoutHandler.Checkout))
			r.Post("/merge", checkoutHandler.Merge)
		})

		r.Get("/orders", ordersHandler.List)
		r.Get("/orders/{orderID}", ordersHandler.Get)
	})

	return r
}

// requestLogger пишет access-лог через logrus после завершения запроса.
func requestLogger(logger *log.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.WithFields(log.Fields{
					"method":     r.Method,
					"path":       r.URL.Path,
					"status":     ww.Status(),
					"bytes":      ww.BytesWritten(),
					"duration":   time.Since(start).String(),
					"request_id": middleware.GetReqID(r.Context()),
				}).Info("http request")
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
