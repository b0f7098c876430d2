package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/techhub/internal/catalog"
	"github.com/fjod/techhub/internal/domain"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ProductHandler struct {
	responder
	catalog *catalog.Service
	timeout time.Duration
}

func NewProductHandler(products *catalog.Service, log *zap.Logger, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		responder: responder{log: log},
		catalog:   products,
		timeout:   timeout,
	}
}

type ProductResponse struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	Price       string            `json:"price"`
	Image       string            `json:"image"`
	Stock       int               `json:"stock"`
	StockLevel  domain.StockLevel `json:"stock_level"`
}

type ProductsResponse struct {
	Products   []ProductResponse `json:"products"`
	Categories []string          `json:"categories"`
}

func newProductResponse(p domain.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price.StringFixed(2),
		Image:       p.Image,
		Stock:       p.Stock,
		StockLevel:  p.StockLevel(),
	}
}

// Get lists the catalog narrowed by the search, category and price query parameters.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q := r.URL.Query()
	found, categories, err := h.catalog.Listing(ctx, catalog.Criteria{
		Search:     q.Get("search"),
		Category:   q.Get("category"),
		PriceRange: q.Get("price"),
	})
	if err != nil {
		if errors.Is(err, catalog.ErrInvalidPriceRange) {
			h.respondJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   "invalid price range",
				Code:    "invalid_price_range",
				Details: err.Error(),
			})
			return
		}
		h.respondError(w, http.StatusInternalServerError, "internal_error", "failed to load products")
		return
	}

	products := make([]ProductResponse, len(found))
	for i, p := range found {
		products[i] = newProductResponse(p)
	}

	h.respondJSON(w, http.StatusOK, &ProductsResponse{Products: products, Categories: categories})
}

func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.respondError(w, http.StatusBadRequest, "invalid_product_id", "invalid product ID")
		return
	}

	p, ok := h.catalog.Product(ctx, id)
	if !ok {
		h.respondError(w, http.StatusNotFound, "not_found", catalog.ErrProductNotFound.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, newProductResponse(p))
}
