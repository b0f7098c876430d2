package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fjod/techhub/internal/domain"
	"github.com/shopspring/decimal"
)

const filterAll = "all"

var ErrInvalidPriceRange = errors.New("invalid price range")

// Criteria composes the storefront filters. Empty fields, and "all" for
// Category and PriceRange, disable the corresponding filter.
type Criteria struct {
	Search     string
	Category   string
	PriceRange string
}

// PriceRange is inclusive; a range without Max is open-ended.
type PriceRange struct {
	Min    decimal.Decimal
	Max    decimal.Decimal
	HasMax bool
}

func (r PriceRange) Contains(price decimal.Decimal) bool {
	if price.LessThan(r.Min) {
		return false
	}
	return !r.HasMax || price.LessThanOrEqual(r.Max)
}

// ParsePriceRange accepts "min-max", "min-", "-max" and "min". An empty min
// is 0 and a zero max means no upper bound.
func ParsePriceRange(s string) (PriceRange, error) {
	lo, hi, _ := strings.Cut(strings.TrimSpace(s), "-")

	minPrice := decimal.Zero
	if lo = strings.TrimSpace(lo); lo != "" {
		var err error
		if minPrice, err = decimal.NewFromString(lo); err != nil {
			return PriceRange{}, fmt.Errorf("%w: %q", ErrInvalidPriceRange, s)
		}
	}
	r := PriceRange{Min: minPrice}

	hi = strings.TrimSpace(hi)
	if hi == "" {
		return r, nil
	}
	maxPrice, err := decimal.NewFromString(hi)
	if err != nil {
		return PriceRange{}, fmt.Errorf("%w: %q", ErrInvalidPriceRange, s)
	}
	if !maxPrice.IsZero() {
		r.Max = maxPrice
		r.HasMax = true
	}
	return r, nil
}

// Filter applies search, category and price filters in that order.
func Filter(products []domain.Product, c Criteria) ([]domain.Product, error) {
	filtered := products

	if search := strings.ToLower(strings.TrimSpace(c.Search)); search != "" {
		filtered = keep(filtered, func(p domain.Product) bool {
			return strings.Contains(strings.ToLower(p.Name), search) ||
				strings.Contains(strings.ToLower(p.Description), search) ||
				strings.Contains(strings.ToLower(p.Category), search)
		})
	}

	if c.Category != "" && c.Category != filterAll {
		filtered = keep(filtered, func(p domain.Product) bool {
			return p.Category == c.Category
		})
	}

	if c.PriceRange != "" && c.PriceRange != filterAll {
		r, err := ParsePriceRange(c.PriceRange)
		if err != nil {
			return nil, err
		}
		filtered = keep(filtered, func(p domain.Product) bool {
			return r.Contains(p.Price)
		})
	}

	return filtered, nil
}

func keep(products []domain.Product, pred func(domain.Product) bool) []domain.Product {
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if pred(p) {
			out = append(out, p)
		}
	}
	return out
}
