package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/techhub/internal/catalog"
	"github.com/fjod/techhub/internal/domain"
	"github.com/fjod/techhub/internal/notify"
	"github.com/fjod/techhub/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CartHandler struct {
	responder
	cart     *service.CartService
	catalog  *catalog.Service
	notifier notify.Notifier
	timeout  time.Duration
}

func NewCartHandler(cart *service.CartService, products *catalog.Service, notifier notify.Notifier, log *zap.Logger, timeout time.Duration) *CartHandler {
	return &CartHandler{
		responder: responder{log: log},
		cart:      cart,
		catalog:   products,
		notifier:  notifier,
		timeout:   timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type TotalsDTO struct {
	Subtotal     string `json:"subtotal"`
	Shipping     string `json:"shipping"`
	FreeShipping bool   `json:"free_shipping"`
	Tax          string `json:"tax"`
	Total        string `json:"total"`
}

type CartResponse struct {
	Items         []domain.LineItem     `json:"items"`
	Count         int                   `json:"count"`
	Totals        TotalsDTO             `json:"totals"`
	Notifications []notify.Notification `json:"notifications,omitempty"`
}

func newTotalsDTO(t domain.Totals) TotalsDTO {
	return TotalsDTO{
		Subtotal:     t.Subtotal.StringFixed(2),
		Shipping:     t.Shipping.StringFixed(2),
		FreeShipping: t.FreeShipping(),
		Tax:          t.Tax.StringFixed(2),
		Total:        t.Total.StringFixed(2),
	}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	shopperID := getShopperID(r.Context())
	if shopperID == "" {
		h.respondError(w, http.StatusUnauthorized, "unauthorized", "missing shopper session")
		return
	}

	h.respondCart(ctx, w, http.StatusOK, shopperID)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	shopperID := getShopperID(r.Context())
	if shopperID == "" {
		h.respondError(w, http.StatusUnauthorized, "unauthorized", "missing shopper session")
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		h.respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}

	product, ok := h.catalog.Product(ctx, req.ProductID)
	if !ok {
		h.respondError(w, http.StatusNotFound, "not_found", catalog.ErrProductNotFound.Error())
		return
	}

	if err := h.cart.AddToCart(ctx, shopperID, product, req.Quantity); err != nil {
		h.respondError(w, http.StatusInternalServerError, "internal_error", "failed to update cart")
		return
	}

	h.respondCart(ctx, w, http.StatusCreated, shopperID)
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	shopperID := getShopperID(r.Context())
	if shopperID == "" {
		h.respondError(w, http.StatusUnauthorized, "unauthorized", "missing shopper session")
		return
	}

	productID, ok := h.parseProductID(w, r)
	if !ok {
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.cart.UpdateQuantity(ctx, shopperID, productID, req.Quantity); err != nil {
		h.respondError(w, http.StatusInternalServerError, "internal_error", "failed to update cart")
		return
	}

	h.respondCart(ctx, w, http.StatusOK, shopperID)
}

func (h *CartHandler) Increment(w http.ResponseWriter, r *http.Request) {
	h.mutateItem(w, r, h.cart.Increment)
}

func (h *CartHandler) Decrement(w http.ResponseWriter, r *http.Request) {
	h.mutateItem(w, r, h.cart.Decrement)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	h.mutateItem(w, r, func(ctx context.Context, shopperID string, productID int64) error {
		if err := h.cart.RemoveFromCart(ctx, shopperID, productID); err != nil {
			return err
		}
		notify.Success(ctx, h.notifier, "Product removed from cart")
		return nil
	})
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	shopperID := getShopperID(r.Context())
	if shopperID == "" {
		h.respondError(w, http.StatusUnauthorized, "unauthorized", "missing shopper session")
		return
	}

	if err := h.cart.ClearCart(ctx, shopperID); err != nil {
		h.respondError(w, http.StatusInternalServerError, "internal_error", "failed to clear cart")
		return
	}

	h.respondCart(ctx, w, http.StatusOK, shopperID)
}

func (h *CartHandler) mutateItem(w http.ResponseWriter, r *http.Request, mutate func(context.Context, string, int64) error) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	shopperID := getShopperID(r.Context())
	if shopperID == "" {
		h.respondError(w, http.StatusUnauthorized, "unauthorized", "missing shopper session")
		return
	}

	productID, ok := h.parseProductID(w, r)
	if !ok {
		return
	}

	if err := mutate(ctx, shopperID, productID); err != nil {
		h.respondError(w, http.StatusInternalServerError, "internal_error", "failed to update cart")
		return
	}

	h.respondCart(ctx, w, http.StatusOK, shopperID)
}

func (h *CartHandler) respondCart(ctx context.Context, w http.ResponseWriter, status int, shopperID string) {
	h.respondJSON(w, status, CartResponse{
		Items:         h.cart.GetCart(ctx, shopperID),
		Count:         h.cart.CartCount(ctx, shopperID),
		Totals:        newTotalsDTO(h.cart.Totals(ctx, shopperID).Rounded()),
		Notifications: drainNotifications(ctx),
	})
}

func (h *CartHandler) parseProductID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		h.respondError(w, http.StatusBadRequest, "invalid_product_id", "invalid product ID")
		return 0, false
	}
	return productID, true
}
