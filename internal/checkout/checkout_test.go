package checkout

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fjod/techhub/internal/domain"
	"github.com/fjod/techhub/internal/notify"
	"github.com/fjod/techhub/internal/service"
	"github.com/fjod/techhub/internal/storage"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type mockPublisher struct {
	m         sync.Mutex
	events    []OrderPlacedEvent
	err       error
	onPublish func()
}

func (p *mockPublisher) PublishOrderPlaced(_ context.Context, event OrderPlacedEvent) error {
	if p.onPublish != nil {
		p.onPublish()
	}
	p.m.Lock()
	defer p.m.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *mockPublisher) Close() error { return nil }

const shopper = "shopper-1"

var (
	laptop = domain.Product{ID: 1, Name: "Laptop Pro 15", Price: decimal.RequireFromString("1299.99"), Stock: 15}
	hub    = domain.Product{ID: 8, Name: "USB-C Hub", Price: decimal.RequireFromString("49.99"), Stock: 100}
)

func validForm() Form {
	return Form{
		Name:       "Test User",
		Email:      "test@test.com",
		Address:    "Calle Falsa 123",
		City:       "Madrid",
		Zip:        "28001",
		CardNumber: "1234 5678 9012 3456",
		CardExpiry: "12/26",
		CardCVC:    "123",
	}
}

func setupCheckout(t *testing.T) (*Service, *service.CartService, *mockPublisher, *notify.Collector, context.Context) {
	ctx, collector := notify.WithCollector(context.Background())
	cart := service.NewCartService(storage.NewMemoryStore(), notify.ContextNotifier{}, zaptest.NewLogger(t))
	publisher := &mockPublisher{}
	sut := NewService(cart, publisher, notify.ContextNotifier{}, zaptest.NewLogger(t))
	return sut, cart, publisher, collector, ctx
}

func TestPlaceOrder_Success(t *testing.T) {
	sut, cart, publisher, collector, ctx := setupCheckout(t)
	placedAt := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	sut.now = func() time.Time { return placedAt }

	require.NoError(t, cart.AddToCart(ctx, shopper, laptop, 1))
	require.NoError(t, cart.AddToCart(ctx, shopper, hub, 1))
	collector.Drain()

	order, err := sut.PlaceOrder(ctx, shopper, validForm())
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^TH-[A-Z0-9]+$`), order.ID)
	assert.Equal(t, NewOrderID(placedAt), order.ID)
	assert.Len(t, order.Cart.Items, 2)
	assert.Equal(t, "1349.98", order.Cart.Subtotal.StringFixed(2))
	assert.Equal(t, "283.50", order.Cart.Tax.StringFixed(2))
	assert.Equal(t, "1633.48", order.Cart.TotalAmount.StringFixed(2))
	assert.Equal(t, "EUR", order.Cart.Currency)

	assert.Empty(t, cart.GetCart(ctx, shopper), "cart must be cleared after the order")

	require.Len(t, publisher.events, 1)
	assert.Equal(t, order.ID, publisher.events[0].OrderID)
	assert.Equal(t, "test@test.com", publisher.events[0].Email)

	assert.Equal(t, []notify.Notification{
		{Message: "Order placed successfully!", Severity: notify.SeveritySuccess},
	}, collector.Drain())
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	sut, _, publisher, _, ctx := setupCheckout(t)

	order, err := sut.PlaceOrder(ctx, shopper, validForm())
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Nil(t, order)
	assert.Empty(t, publisher.events)
}

func TestPlaceOrder_InvalidForm(t *testing.T) {
	sut, cart, publisher, collector, ctx := setupCheckout(t)
	require.NoError(t, cart.AddToCart(ctx, shopper, laptop, 1))
	collector.Drain()

	form := validForm()
	form.Name = ""
	form.Email = ""

	order, err := sut.PlaceOrder(ctx, shopper, form)
	assert.Nil(t, order)

	var v *domain.ValidationError
	require.True(t, errors.As(err, &v))
	assert.Equal(t, []string{"name", "email"}, v.Fields)

	assert.Len(t, cart.GetCart(ctx, shopper), 1, "cart is kept on validation failure")
	assert.Empty(t, publisher.events)
	assert.Equal(t, []notify.Notification{
		{Message: "Please fill in all fields correctly", Severity: notify.SeverityError},
	}, collector.Drain())
}

func TestPlaceOrder_PublishFailureStillPlacesOrder(t *testing.T) {
	sut, cart, publisher, _, ctx := setupCheckout(t)
	publisher.err = fmt.Errorf("broker unavailable")
	require.NoError(t, cart.AddToCart(ctx, shopper, hub, 2))

	order, err := sut.PlaceOrder(ctx, shopper, validForm())
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	assert.Empty(t, cart.GetCart(ctx, shopper))
}

// blockingPublisher holds every publish until its context ends.
type blockingPublisher struct {
	err chan error
}

func (p *blockingPublisher) PublishOrderPlaced(ctx context.Context, _ OrderPlacedEvent) error {
	<-ctx.Done()
	p.err <- ctx.Err()
	return ctx.Err()
}

func (p *blockingPublisher) Close() error { return nil }

func TestPlaceOrder_StalledPublisherDoesNotFailOrder(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := storage.NewRedisStore(client, 0)
	cart := service.NewCartService(store, notify.ContextNotifier{}, zaptest.NewLogger(t))
	publisher := &blockingPublisher{err: make(chan error, 1)}
	sut := NewService(cart, publisher, notify.ContextNotifier{}, zaptest.NewLogger(t))
	sut.publishTimeout = 50 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, cart.AddToCart(ctx, shopper, hub, 1))

	order, err := sut.PlaceOrder(ctx, shopper, validForm())
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)

	assert.ErrorIs(t, <-publisher.err, context.DeadlineExceeded)
	assert.NoError(t, ctx.Err(), "the request deadline must not be spent on the publisher")
	assert.False(t, mr.Exists("techhub_cart:"+shopper))
}

func TestPlaceOrder_ClearsCartBeforePublishing(t *testing.T) {
	sut, cart, publisher, _, ctx := setupCheckout(t)
	require.NoError(t, cart.AddToCart(ctx, shopper, laptop, 1))

	var cartAtPublish []domain.LineItem
	publisher.onPublish = func() { cartAtPublish = cart.GetCart(ctx, shopper) }

	_, err := sut.PlaceOrder(ctx, shopper, validForm())
	require.NoError(t, err)
	assert.Empty(t, cartAtPublish)
}

func TestSummary(t *testing.T) {
	sut, cart, _, _, ctx := setupCheckout(t)

	_, err := sut.Summary(ctx, shopper)
	assert.ErrorIs(t, err, ErrEmptyCart)

	require.NoError(t, cart.AddToCart(ctx, shopper, hub, 1))
	summary, err := sut.Summary(ctx, shopper)
	require.NoError(t, err)
	assert.Equal(t, "49.99", summary.Subtotal.StringFixed(2))
	assert.Equal(t, "9.99", summary.Shipping.StringFixed(2))
	assert.Equal(t, "70.48", summary.TotalAmount.StringFixed(2))

	// same numbers as the cart page
	totals := cart.Totals(ctx, shopper).Rounded()
	assert.True(t, totals.Total.Equal(summary.TotalAmount))
}

func TestPrefill(t *testing.T) {
	sut, cart, _, _, ctx := setupCheckout(t)

	assert.Equal(t, Form{}, sut.Prefill(ctx, shopper))

	_, err := cart.Login(ctx, shopper, "test@test.com", "test")
	require.NoError(t, err)
	form := sut.Prefill(ctx, shopper)
	assert.Equal(t, "test", form.Name)
	assert.Equal(t, "test@test.com", form.Email)
}

func TestNewOrderID(t *testing.T) {
	ts := time.UnixMilli(1760000000000)
	assert.Equal(t, "TH-MGJ6K3CW", NewOrderID(ts))
}
