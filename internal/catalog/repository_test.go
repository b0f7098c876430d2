package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func setupTestDB(t *testing.T) *Repository {
	// Use in-memory database for tests
	repo, err := NewRepository(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	require.NoError(t, repo.RunMigrations("./migrations"))
	return repo
}

func TestRepository_ProductsAfterMigrations(t *testing.T) {
	repo := setupTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	products, err := repo.Products(ctx)
	require.NoError(t, err)
	require.Len(t, products, 8)
	assert.Equal(t, int64(1), products[0].ID)
	assert.Equal(t, int64(8), products[7].ID)
}

func TestRepository_MigrationsAreIdempotent(t *testing.T) {
	repo := setupTestDB(t)

	require.NoError(t, repo.RunMigrations("./migrations"))
	products, err := repo.Products(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 8)
}

func TestRepository_GetProduct(t *testing.T) {
	repo := setupTestDB(t)

	p, err := repo.GetProduct(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Laptop Pro 15", p.Name)
	assert.Equal(t, "laptops", p.Category)
	assert.Equal(t, "1299.99", p.Price.StringFixed(2))
	assert.Equal(t, 15, p.Stock)

	tablet, err := repo.GetProduct(context.Background(), 6)
	require.NoError(t, err)
	assert.Equal(t, 0, tablet.Stock)
}

func TestRepository_GetProduct_NotFound(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.GetProduct(context.Background(), -1)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestRepository_CancelledContext(t *testing.T) {
	repo := setupTestDB(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Products(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestService_ProductUsesRepositoryLookup(t *testing.T) {
	sut := NewService(setupTestDB(t), zaptest.NewLogger(t))

	p, ok := sut.Product(context.Background(), 8)
	require.True(t, ok)
	assert.Equal(t, "USB-C Hub", p.Name)

	_, ok = sut.Product(context.Background(), 99)
	assert.False(t, ok)
}
