package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type Handlers struct {
	Products *ProductHandler
	Cart     *CartHandler
	Session  *SessionHandler
	Checkout *CheckoutHandler
}

func NewRouter(h Handlers, log *zap.Logger, timeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		responder{log: log}.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ShopperMiddleware)
		r.Use(NotificationsMiddleware)

		r.Get("/products", h.Products.Get)
		r.Get("/products/{id}", h.Products.GetByID)

		r.Get("/cart", h.Cart.GetCart)
		r.Delete("/cart", h.Cart.ClearCart)
		r.Post("/cart/items", h.Cart.AddItem)
		r.Put("/cart/items/{product_id}", h.Cart.UpdateQuantity)
		r.Delete("/cart/items/{product_id}", h.Cart.RemoveItem)
		r.Post("/cart/items/{product_id}/increment", h.Cart.Increment)
		r.Post("/cart/items/{product_id}/decrement", h.Cart.Decrement)

		r.Get("/session", h.Session.Get)
		r.Post("/session/login", h.Session.Login)
		r.Post("/session/register", h.Session.Register)
		r.Delete("/session", h.Session.Logout)

		r.Get("/checkout", h.Checkout.Get)
		r.Post("/checkout", h.Checkout.PlaceOrder)
	})

	return otelhttp.NewHandler(r, "storefront")
}
