package domain

import "github.com/shopspring/decimal"

// Product is a read-only catalog record.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Stock       int             `json:"stock"`
}

type StockLevel string

const (
	StockOut StockLevel = "out_of_stock"
	StockLow StockLevel = "low"
	StockIn  StockLevel = "in_stock"

	LowStockThreshold = 10
)

func (p Product) StockLevel() StockLevel {
	switch {
	case p.Stock <= 0:
		return StockOut
	case p.Stock <= LowStockThreshold:
		return StockLow
	default:
		return StockIn
	}
}

func (p Product) Available() bool {
	return p.Stock > 0
}
