package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/techhub/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var ErrProductNotFound = errors.New("product not found")

// loadTimeout bounds a shared catalog load once it is detached from the caller.
const loadTimeout = 10 * time.Second

// Source is a read-only product feed.
type Source interface {
	Products(ctx context.Context) ([]domain.Product, error)
}

// productGetter is implemented by sources that can look up a single product.
type productGetter interface {
	GetProduct(ctx context.Context, id int64) (domain.Product, error)
}

// Service loads the catalog from its source on every call. A failing
// source is reported as an empty catalog.
type Service struct {
	source Source
	log    *zap.Logger
	sfg    singleflight.Group // collapses concurrent loads
}

func NewService(source Source, log *zap.Logger) *Service {
	return &Service{
		source: source,
		log:    log,
	}
}

func (s *Service) Products(ctx context.Context) []domain.Product {
	// the load is shared, so one caller going away must not fail the others
	v, err, _ := s.sfg.Do("products", func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		return s.source.Products(loadCtx)
	})
	if err != nil {
		s.log.Error("loading products failed", zap.Error(err))
		return []domain.Product{}
	}

	// callers sharing a load must not share the backing array
	loaded, _ := v.([]domain.Product)
	products := make([]domain.Product, len(loaded))
	copy(products, loaded)
	return products
}

func (s *Service) Product(ctx context.Context, id int64) (domain.Product, bool) {
	if getter, ok := s.source.(productGetter); ok {
		p, err := getter.GetProduct(ctx, id)
		if err != nil {
			if !errors.Is(err, ErrProductNotFound) {
				s.log.Error("loading product failed", zap.Int64("product_id", id), zap.Error(err))
			}
			return domain.Product{}, false
		}
		return p, true
	}

	for _, p := range s.Products(ctx) {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

func (s *Service) Search(ctx context.Context, c Criteria) ([]domain.Product, error) {
	return Filter(s.Products(ctx), c)
}

// Listing filters the catalog and lists its categories from a single load.
func (s *Service) Listing(ctx context.Context, c Criteria) ([]domain.Product, []string, error) {
	products := s.Products(ctx)
	filtered, err := Filter(products, c)
	if err != nil {
		return nil, nil, err
	}
	return filtered, categoriesOf(products), nil
}

// Categories lists distinct categories in catalog order.
func (s *Service) Categories(ctx context.Context) []string {
	return categoriesOf(s.Products(ctx))
}

func categoriesOf(products []domain.Product) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, p := range products {
		if !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	return out
}
