package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/techhub/internal/domain"
	"github.com/fjod/techhub/internal/notify"
	"go.uber.org/zap"
)

var ErrEmptyCart = errors.New("cart is empty, nothing to checkout")

// DefaultPublishTimeout bounds how long an order waits on the event publisher.
const DefaultPublishTimeout = 2 * time.Second

// Cart is the part of the cart store checkout depends on.
type Cart interface {
	GetCart(ctx context.Context, shopperID string) []domain.LineItem
	ClearCart(ctx context.Context, shopperID string) error
	CurrentUser(ctx context.Context, shopperID string) *domain.Session
}

type Order struct {
	ID        string       `json:"order_id"`
	ShopperID string       `json:"-"`
	Cart      CartSnapshot `json:"cart"`
	PlacedAt  time.Time    `json:"placed_at"`
}

type Service struct {
	cart           Cart
	publisher      EventPublisher
	notifier       notify.Notifier
	log            *zap.Logger
	now            func() time.Time
	publishTimeout time.Duration
}

func NewService(cart Cart, publisher EventPublisher, notifier notify.Notifier, log *zap.Logger) *Service {
	return &Service{
		cart:           cart,
		publisher:      publisher,
		notifier:       notifier,
		log:            log,
		now:            time.Now,
		publishTimeout: DefaultPublishTimeout,
	}
}

// Summary snapshots the cart for the checkout page.
func (s *Service) Summary(ctx context.Context, shopperID string) (CartSnapshot, error) {
	items := s.cart.GetCart(ctx, shopperID)
	if len(items) == 0 {
		return CartSnapshot{}, ErrEmptyCart
	}
	return NewCartSnapshot(items, s.now()), nil
}

// Prefill fills name and email from the shopper's session, if any.
func (s *Service) Prefill(ctx context.Context, shopperID string) Form {
	user := s.cart.CurrentUser(ctx, shopperID)
	if user == nil {
		return Form{}
	}
	return Form{Name: user.Name, Email: user.Email}
}

func (s *Service) PlaceOrder(ctx context.Context, shopperID string, form Form) (*Order, error) {
	items := s.cart.GetCart(ctx, shopperID)
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	if err := form.Validate(); err != nil {
		notify.Error(ctx, s.notifier, "Please fill in all fields correctly")
		return nil, err
	}

	now := s.now()
	order := &Order{
		ID:        NewOrderID(now),
		ShopperID: shopperID,
		Cart:      NewCartSnapshot(items, now),
		PlacedAt:  now,
	}

	if err := s.cart.ClearCart(ctx, shopperID); err != nil {
		return nil, fmt.Errorf("clear cart after order %s: %w", order.ID, err)
	}

	s.publish(ctx, OrderPlacedEvent{
		OrderID:      order.ID,
		ShopperID:    shopperID,
		CustomerName: form.Name,
		Email:        form.Email,
		Cart:         order.Cart,
		PlacedAt:     now,
	})

	notify.Success(ctx, s.notifier, "Order placed successfully!")
	s.log.Info("order placed", zap.String("order_id", order.ID), zap.String("shopper_id", shopperID))
	return order, nil
}

// publish is best effort: it runs detached from the request deadline, bounded
// by publishTimeout, and failures are only logged.
func (s *Service) publish(ctx context.Context, event OrderPlacedEvent) {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()

	if err := s.publisher.PublishOrderPlaced(pubCtx, event); err != nil {
		s.log.Error("publish order placed failed", zap.String("order_id", event.OrderID), zap.Error(err))
	}
}

// NewOrderID renders t in milliseconds as upper-case base 36 behind "TH-".
func NewOrderID(t time.Time) string {
	return "TH-" + strings.ToUpper(strconv.FormatInt(t.UnixMilli(), 36))
}
