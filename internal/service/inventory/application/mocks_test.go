package application_test

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"

	"storefront/internal/service/inventory/application"
	"storefront/internal/service/inventory/domain"
	"storefront/internal/service/inventory/domain/port"
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

// mockCacheStore 是 port.CacheStore 的内存实现，记录删除次数。
type mockCacheStore struct {
	mu      sync.Mutex
	entries map[string]string
	deletes int
}

func newMockCacheStore() *mockCacheStore {
	return &mockCacheStore{entries: make(map[string]string)}
}

func (m *mockCacheStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.entries[key]
	if !ok {
		return "", port.ErrCacheMiss
	}
	return value, nil
}

func (m *mockCacheStore) SetWithExpiry(_ context.Context, key, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	return nil
}

func (m *mockCacheStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	m.deletes++
	return nil
}

func (m *mockCacheStore) DeleteCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deletes
}

// mockAlertSink 捕获投递的告警事件。
type mockAlertSink struct {
	mu     sync.Mutex
	alerts []domain.StockAlert
}

func (m *mockAlertSink) Notify(_ context.Context, alert domain.StockAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, alert)
	return nil
}

func (m *mockAlertSink) Alerts() []domain.StockAlert {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.StockAlert(nil), m.alerts...)
}

type testEnv struct {
	service   *application.InventoryService
	catalog   *mockCatalog
	cache     *mockCacheStore
	sink      *mockAlertSink
	registry  *domain.ReservationRegistry
	scheduler *application.ExpiryScheduler
}

func newTestEnv(products ...*domain.Product) *testEnv {
	catalog := newMockCatalog(products...)
	cache := newMockCacheStore()
	sink := &mockAlertSink{}

	ledger := domain.NewStockLedger(catalog)
	registry := domain.NewReservationRegistry()
	availability := application.NewAvailabilityCache(cache, ledger, registry, 300*time.Second)
	scheduler := application.NewExpiryScheduler(registry, time.Minute)

	service := application.NewInventoryService(
		catalog, ledger, registry, availability, scheduler, sink,
		domain.DefaultAlertThresholds(), otel.Tracer("test"))

	return &testEnv{
		service: service, catalog: catalog, cache: cache,
		sink: sink, registry: registry, scheduler: scheduler,
	}
}
