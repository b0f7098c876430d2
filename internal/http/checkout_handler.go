package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/techhub/internal/checkout"
	"github.com/fjod/techhub/internal/domain"
	"github.com/fjod/techhub/internal/notify"
	"go.uber.org/zap"
)

type CheckoutHandler struct {
	responder
	checkout *checkout.Service
	timeout  time.Duration
}

func NewCheckoutHandler(checkoutService *checkout.Service, log *zap.Logger, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		responder: responder{log: log},
		checkout:  checkoutService,
		timeout:   timeout,
	}
}

type CheckoutPageResponse struct {
	Form checkout.Form         `json:"form"`
	Cart checkout.CartSnapshot `json:"cart"`
}

type OrderResponse struct {
	*checkout.Order
	Notifications []notify.Notification `json:"notifications,omitempty"`
}

// Get returns the checkout form prefilled from the session with the current cart.
func (h *CheckoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	shopperID := getShopperID(r.Context())
	if shopperID == "" {
		h.respondError(w, http.StatusUnauthorized, "unauthorized", "missing shopper session")
		return
	}

	summary, err := h.checkout.Summary(ctx, shopperID)
	if err != nil {
		h.respondCheckoutError(ctx, w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, CheckoutPageResponse{
		Form: h.checkout.Prefill(ctx, shopperID),
		Cart: summary,
	})
}

func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	shopperID := getShopperID(r.Context())
	if shopperID == "" {
		h.respondError(w, http.StatusUnauthorized, "unauthorized", "missing shopper session")
		return
	}

	var form checkout.Form
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	order, err := h.checkout.PlaceOrder(ctx, shopperID, form)
	if err != nil {
		h.respondCheckoutError(ctx, w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, OrderResponse{Order: order, Notifications: drainNotifications(ctx)})
}

func (h *CheckoutHandler) respondCheckoutError(ctx context.Context, w http.ResponseWriter, err error) {
	var invalid *domain.ValidationError
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		h.respondError(w, http.StatusConflict, "empty_cart", err.Error())
	case errors.As(err, &invalid):
		h.respondValidation(ctx, w, invalid)
	default:
		h.respondError(w, http.StatusInternalServerError, "internal_error", "failed to place order")
	}
}
