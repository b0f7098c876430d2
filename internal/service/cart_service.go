package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/techhub/internal/domain"
	"github.com/fjod/techhub/internal/notify"
	"github.com/fjod/techhub/internal/storage"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	cartKeyPrefix    = "techhub_cart"
	sessionKeyPrefix = "techhub_user"
)

// CartService owns a shopper's cart and session. Nothing is cached: every
// read parses storage and every mutation writes it back.
type CartService struct {
	store    storage.KeyValue
	notifier notify.Notifier
	log      *zap.Logger
	now      func() time.Time
}

func NewCartService(store storage.KeyValue, notifier notify.Notifier, log *zap.Logger) *CartService {
	return &CartService{
		store:    store,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// GetCart returns the persisted line items in insertion order. Missing or
// unreadable state yields an empty cart.
func (s *CartService) GetCart(ctx context.Context, shopperID string) []domain.LineItem {
	data, err := s.store.Get(ctx, cartKey(shopperID))
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.log.Warn("cart read failed", zap.String("shopper_id", shopperID), zap.Error(err))
		}
		return []domain.LineItem{}
	}

	var items []domain.LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		s.log.Warn("discarding unparsable cart", zap.String("shopper_id", shopperID), zap.Error(err))
		return []domain.LineItem{}
	}
	if items == nil {
		return []domain.LineItem{}
	}
	return items
}

// AddToCart adds quantity units of product, never exceeding the product's stock.
// A quantity below 1 counts as 1.
func (s *CartService) AddToCart(ctx context.Context, shopperID string, product domain.Product, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}
	// no single add can exceed stock; keeps the sum below from overflowing
	quantity = min(quantity, product.Stock)

	items := s.GetCart(ctx, shopperID)
	if i := domain.FindItem(items, product.ID); i >= 0 {
		items[i].Quantity = min(items[i].Quantity+quantity, product.Stock)
	} else {
		// zero-stock products end up with quantity 0
		items = append(items, domain.NewLineItem(product, quantity))
	}

	if err := s.saveCart(ctx, shopperID, items); err != nil {
		s.log.Error("add to cart failed", zap.String("shopper_id", shopperID), zap.Int64("product_id", product.ID), zap.Error(err))
		return err
	}

	notify.Success(ctx, s.notifier, fmt.Sprintf("%s added to cart", product.Name))
	return nil
}

func (s *CartService) RemoveFromCart(ctx context.Context, shopperID string, productID int64) error {
	items := s.GetCart(ctx, shopperID)
	kept := items[:0]
	for _, item := range items {
		if item.ID != productID {
			kept = append(kept, item)
		}
	}

	if err := s.saveCart(ctx, shopperID, kept); err != nil {
		s.log.Error("remove from cart failed", zap.String("shopper_id", shopperID), zap.Int64("product_id", productID), zap.Error(err))
		return err
	}
	return nil
}

// UpdateQuantity clamps quantity into [1, stock]. Unknown ids are ignored.
func (s *CartService) UpdateQuantity(ctx context.Context, shopperID string, productID int64, quantity int) error {
	items := s.GetCart(ctx, shopperID)
	i := domain.FindItem(items, productID)
	if i < 0 {
		return nil
	}

	items[i].Quantity = max(1, min(quantity, items[i].Stock))

	if err := s.saveCart(ctx, shopperID, items); err != nil {
		s.log.Error("update quantity failed", zap.String("shopper_id", shopperID), zap.Int64("product_id", productID), zap.Error(err))
		return err
	}
	return nil
}

func (s *CartService) Increment(ctx context.Context, shopperID string, productID int64) error {
	items := s.GetCart(ctx, shopperID)
	i := domain.FindItem(items, productID)
	if i < 0 {
		return nil
	}
	return s.UpdateQuantity(ctx, shopperID, productID, items[i].Quantity+1)
}

// Decrement lowers the quantity by one, removing the item once it would drop below 1.
func (s *CartService) Decrement(ctx context.Context, shopperID string, productID int64) error {
	items := s.GetCart(ctx, shopperID)
	i := domain.FindItem(items, productID)
	if i < 0 {
		return nil
	}
	if items[i].Quantity <= 1 {
		return s.RemoveFromCart(ctx, shopperID, productID)
	}
	return s.UpdateQuantity(ctx, shopperID, productID, items[i].Quantity-1)
}

// ClearCart deletes the persisted cart rather than storing an empty one.
func (s *CartService) ClearCart(ctx context.Context, shopperID string) error {
	if err := s.store.Delete(ctx, cartKey(shopperID)); err != nil {
		s.log.Error("clear cart failed", zap.String("shopper_id", shopperID), zap.Error(err))
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (s *CartService) CartTotal(ctx context.Context, shopperID string) decimal.Decimal {
	return domain.Subtotal(s.GetCart(ctx, shopperID))
}

func (s *CartService) CartCount(ctx context.Context, shopperID string) int {
	return domain.Count(s.GetCart(ctx, shopperID))
}

// Totals derives subtotal, shipping, tax and total from a fresh read.
func (s *CartService) Totals(ctx context.Context, shopperID string) domain.Totals {
	return domain.ComputeTotals(s.CartTotal(ctx, shopperID))
}

func (s *CartService) saveCart(ctx context.Context, shopperID string, items []domain.LineItem) error {
	if items == nil {
		items = []domain.LineItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}
	if err := s.store.Set(ctx, cartKey(shopperID), data); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func cartKey(shopperID string) string {
	return fmt.Sprintf("%s:%s", cartKeyPrefix, shopperID)
}

func sessionKey(shopperID string) string {
	return fmt.Sprintf("%s:%s", sessionKeyPrefix, shopperID)
}
