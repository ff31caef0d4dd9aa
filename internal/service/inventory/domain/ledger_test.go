package domain_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/service/inventory/domain"
)

// mockCatalog 是 domain.CatalogStore 的内存实现。
type mockCatalog struct {
	mu    sync.Mutex
	store map[string]*domain.Product
}

func newMockCatalog(products ...*domain.Product) *mockCatalog {
	m := &mockCatalog{store: make(map[string]*domain.Product)}
	for _, p := range products {
		m.store[p.ID] = p
	}
	return m
}

func (m *mockCatalog) GetProduct(_ context.Context, productID string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[productID]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	clone := *p
	clone.Variants = append([]domain.Variant(nil), p.Variants...)
	return &clone, nil
}

func (m *mockCatalog) SaveProduct(_ context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[product.ID]; !ok {
		return domain.ErrProductNotFound
	}
	clone := *product
	clone.Variants = append([]domain.Variant(nil), product.Variants...)
	m.store[product.ID] = &clone
	return nil
}

func (m *mockCatalog) ListProducts(_ context.Context) ([]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	products := make([]*domain.Product, 0, len(m.store))
	for _, p := range m.store {
		clone := *p
		products = append(products, &clone)
	}
	return products, nil
}

func shoeProduct() *domain.Product {
	return &domain.Product{
		ID: "shoe", Name: "Runner", Price: 59.9, Stock: 5, Active: true,
		Variants: []domain.Variant{
			{Size: "9", Color: "black", Stock: 2},
			{Size: "10", Color: "white", Stock: 3},
		},
	}
}

func TestGetStockBaseProduct(t *testing.T) {
	ledger := domain.NewStockLedger(newMockCatalog(shoeProduct()))

	info, err := ledger.GetStock(context.Background(), domain.StockKey{ProductID: "shoe"})
	require.NoError(t, err)
	assert.Equal(t, 5, info.Total)
	assert.True(t, info.Active)
}

func TestGetStockVariantMatching(t *testing.T) {
	ledger := domain.NewStockLedger(newMockCatalog(shoeProduct()))
	ctx := context.Background()

	t.Run("both dimensions", func(t *testing.T) {
		info, err := ledger.GetStock(ctx, domain.StockKey{ProductID: "shoe", Variant: domain.VariantKey{Size: "9", Color: "black"}})
		require.NoError(t, err)
		assert.Equal(t, 2, info.Total)
	})

	t.Run("unspecified dimension matches any", func(t *testing.T) {
		info, err := ledger.GetStock(ctx, domain.StockKey{ProductID: "shoe", Variant: domain.VariantKey{Size: "10"}})
		require.NoError(t, err)
		assert.Equal(t, 3, info.Total)

		info, err = ledger.GetStock(ctx, domain.StockKey{ProductID: "shoe", Variant: domain.VariantKey{Color: "black"}})
		require.NoError(t, err)
		assert.Equal(t, 2, info.Total)
	})

	t.Run("no such variant", func(t *testing.T) {
		_, err := ledger.GetStock(ctx, domain.StockKey{ProductID: "shoe", Variant: domain.VariantKey{Size: "13"}})
		assert.ErrorIs(t, err, domain.ErrVariantNotFound)
	})
}

func TestGetStockProductNotFound(t *testing.T) {
	ledger := domain.NewStockLedger(newMockCatalog())

	_, err := ledger.GetStock(context.Background(), domain.StockKey{ProductID: "ghost"})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestMutateBaseStock(t *testing.T) {
	catalog := newMockCatalog(&domain.Product{ID: "book", Stock: 10, Active: true})
	ledger := domain.NewStockLedger(catalog)
	ctx := context.Background()
	key := domain.StockKey{ProductID: "book"}

	oldStock, newStock, err := ledger.Mutate(ctx, key, domain.OpAdd, 5)
	require.NoError(t, err)
	assert.Equal(t, 10, oldStock)
	assert.Equal(t, 15, newStock)

	oldStock, newStock, err = ledger.Mutate(ctx, key, domain.OpSet, 7)
	require.NoError(t, err)
	assert.Equal(t, 15, oldStock)
	assert.Equal(t, 7, newStock)

	oldStock, newStock, err = ledger.Mutate(ctx, key, domain.OpSubtract, 3)
	require.NoError(t, err)
	assert.Equal(t, 7, oldStock)
	assert.Equal(t, 4, newStock)
}

func TestMutateSubtractFloorsAtZero(t *testing.T) {
	catalog := newMockCatalog(&domain.Product{ID: "book", Stock: 2, Active: true})
	ledger := domain.NewStockLedger(catalog)

	_, newStock, err := ledger.Mutate(context.Background(), domain.StockKey{ProductID: "book"}, domain.OpSubtract, 100)
	require.NoError(t, err)
	assert.Equal(t, 0, newStock)
}

func TestMutateVariantRecomputesAggregate(t *testing.T) {
	catalog := newMockCatalog(shoeProduct())
	ledger := domain.NewStockLedger(catalog)
	ctx := context.Background()

	key := domain.StockKey{ProductID: "shoe", Variant: domain.VariantKey{Size: "9", Color: "black"}}
	oldStock, newStock, err := ledger.Mutate(ctx, key, domain.OpSet, 6)
	require.NoError(t, err)
	assert.Equal(t, 2, oldStock)
	assert.Equal(t, 6, newStock)

	// 商品总库存重算为规格之和: 6 + 3
	info, err := ledger.GetStock(ctx, domain.StockKey{ProductID: "shoe"})
	require.NoError(t, err)
	assert.Equal(t, 9, info.Total)
}

func TestMutateUnknownOperation(t *testing.T) {
	ledger := domain.NewStockLedger(newMockCatalog(&domain.Product{ID: "book", Stock: 1, Active: true}))

	_, _, err := ledger.Mutate(context.Background(), domain.StockKey{ProductID: "book"}, "increment", 1)
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)
}

func TestMutateVariantNotFound(t *testing.T) {
	ledger := domain.NewStockLedger(newMockCatalog(shoeProduct()))

	key := domain.StockKey{ProductID: "shoe", Variant: domain.VariantKey{Size: "13"}}
	_, _, err := ledger.Mutate(context.Background(), key, domain.OpAdd, 1)
	assert.ErrorIs(t, err, domain.ErrVariantNotFound)
}

func TestConcurrentMutatesAreNotLost(t *testing.T) {
	catalog := newMockCatalog(&domain.Product{ID: "book", Stock: 0, Active: true})
	ledger := domain.NewStockLedger(catalog)
	ctx := context.Background()
	key := domain.StockKey{ProductID: "book"}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := ledger.Mutate(ctx, key, domain.OpAdd, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	info, err := ledger.GetStock(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 20, info.Total)
}
