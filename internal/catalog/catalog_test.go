package catalog

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fjod/techhub/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type mockSource struct {
	products []domain.Product
	err      error
	delay    time.Duration
	calls    atomic.Int32
}

func (m *mockSource) Products(context.Context) ([]domain.Product, error) {
	m.calls.Add(1)
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.products, nil
}

func TestService_Products(t *testing.T) {
	src := &mockSource{products: testProducts()}
	sut := NewService(src, zaptest.NewLogger(t))

	products := sut.Products(context.Background())
	assert.Len(t, products, 5)

	// no caching: each call reaches the source
	sut.Products(context.Background())
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestService_SourceFailureYieldsEmptyCatalog(t *testing.T) {
	sut := NewService(&mockSource{err: fmt.Errorf("catalog unavailable")}, zaptest.NewLogger(t))

	products := sut.Products(context.Background())
	assert.NotNil(t, products)
	assert.Empty(t, products)

	_, ok := sut.Product(context.Background(), 1)
	assert.False(t, ok)
}

func TestService_ConcurrentLoadsShareOneFetch(t *testing.T) {
	src := &mockSource{products: testProducts(), delay: 50 * time.Millisecond}
	sut := NewService(src, zaptest.NewLogger(t))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Len(t, sut.Products(context.Background()), 5)
		}()
	}
	wg.Wait()

	assert.Less(t, src.calls.Load(), int32(10))
}

func TestService_Product(t *testing.T) {
	sut := NewService(&mockSource{products: testProducts()}, zaptest.NewLogger(t))

	p, ok := sut.Product(context.Background(), 4)
	require.True(t, ok)
	assert.Equal(t, "Mechanical Keyboard", p.Name)

	_, ok = sut.Product(context.Background(), 999)
	assert.False(t, ok)
}

func TestService_SearchAndCategories(t *testing.T) {
	sut := NewService(&mockSource{products: testProducts()}, zaptest.NewLogger(t))

	got, err := sut.Search(context.Background(), Criteria{Category: "audio"})
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, ids(got))

	assert.Equal(t, []string{"laptops", "audio", "accessories"}, sut.Categories(context.Background()))
}

func TestService_ListingLoadsOnce(t *testing.T) {
	src := &mockSource{products: testProducts()}
	sut := NewService(src, zaptest.NewLogger(t))

	got, categories, err := sut.Listing(context.Background(), Criteria{Category: "audio"})
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, ids(got))
	assert.Equal(t, []string{"laptops", "audio", "accessories"}, categories, "categories come from the whole catalog")
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestService_ListingInvalidPriceRange(t *testing.T) {
	sut := NewService(&mockSource{products: testProducts()}, zaptest.NewLogger(t))

	_, _, err := sut.Listing(context.Background(), Criteria{PriceRange: "cheap"})
	assert.ErrorIs(t, err, ErrInvalidPriceRange)
}

// gatedSource holds every load until release is closed, failing early only
// if its own context ends.
type gatedSource struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedSource) Products(ctx context.Context) ([]domain.Product, error) {
	g.once.Do(func() { close(g.started) })
	select {
	case <-g.release:
		return testProducts(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestService_CancelledCallerDoesNotFailSharedLoad(t *testing.T) {
	src := &gatedSource{started: make(chan struct{}), release: make(chan struct{})}
	sut := NewService(src, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan []domain.Product, 1)
	go func() { first <- sut.Products(ctx) }()
	<-src.started

	second := make(chan []domain.Product, 1)
	go func() { second <- sut.Products(context.Background()) }()

	cancel()
	time.Sleep(50 * time.Millisecond)
	close(src.release)

	assert.Len(t, <-first, 5)
	assert.Len(t, <-second, 5)
}
