package checkout

import (
	"time"

	"github.com/fjod/techhub/internal/domain"
	"github.com/shopspring/decimal"
)

const Currency = "EUR"

type CartSnapshotItem struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// CartSnapshot represents the full cart state at checkout time
type CartSnapshot struct {
	Items       []CartSnapshotItem `json:"items"`
	Subtotal    decimal.Decimal    `json:"subtotal"`
	Shipping    decimal.Decimal    `json:"shipping"`
	Tax         decimal.Decimal    `json:"tax"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
	Currency    string             `json:"currency"`
	CapturedAt  time.Time          `json:"captured_at"`
}

func NewCartSnapshot(items []domain.LineItem, capturedAt time.Time) CartSnapshot {
	snapshot := CartSnapshot{
		Items:      make([]CartSnapshotItem, 0, len(items)),
		Currency:   Currency,
		CapturedAt: capturedAt,
	}
	for _, item := range items {
		snapshot.Items = append(snapshot.Items, CartSnapshotItem{
			ProductID:   item.ID,
			ProductName: item.Name,
			Quantity:    item.Quantity,
			UnitPrice:   item.Price,
			Subtotal:    item.LineTotal(),
		})
	}

	totals := domain.ComputeTotals(domain.Subtotal(items)).Rounded()
	snapshot.Subtotal = totals.Subtotal
	snapshot.Shipping = totals.Shipping
	snapshot.Tax = totals.Tax
	snapshot.TotalAmount = totals.Total
	return snapshot
}
