package domain_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/service/inventory/domain"
)

func baseKey(productID string) domain.StockKey {
	return domain.StockKey{ProductID: productID}
}

func TestReserveAndRelease(t *testing.T) {
	registry := domain.NewReservationRegistry()
	key := baseKey("product-1")

	res, err := registry.Reserve("r1", key, 3, time.Minute, 10)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, 3, res.Quantity)
	assert.Equal(t, 3, registry.ReservedQuantity(key))

	quantity, released := registry.Release("r1", key)
	require.True(t, released)
	assert.Equal(t, 3, quantity)
	assert.Equal(t, 0, registry.ReservedQuantity(key))
}

func TestReserveInsufficientStock(t *testing.T) {
	registry := domain.NewReservationRegistry()
	key := baseKey("product-1")

	_, err := registry.Reserve("r1", key, 8, time.Minute, 10)
	require.NoError(t, err)

	_, err = registry.Reserve("r2", key, 5, time.Minute, 10)
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 2, insufficient.Available)
	assert.Equal(t, 5, insufficient.Requested)
}

func TestReserveRejectsNonPositiveQuantity(t *testing.T) {
	registry := domain.NewReservationRegistry()

	_, err := registry.Reserve("r1", baseKey("product-1"), 0, time.Minute, 10)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = registry.Reserve("r2", baseKey("product-1"), -2, time.Minute, 10)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestDuplicateReservationID(t *testing.T) {
	registry := domain.NewReservationRegistry()

	_, err := registry.Reserve("r1", baseKey("product-1"), 1, time.Minute, 10)
	require.NoError(t, err)

	// 相同 ID 即便落在不同的键上也要被拒绝
	_, err = registry.Reserve("r1", baseKey("product-2"), 1, time.Minute, 10)
	assert.ErrorIs(t, err, domain.ErrDuplicateReservation)
}

func TestReleaseIsIdempotent(t *testing.T) {
	registry := domain.NewReservationRegistry()
	key := baseKey("product-1")

	_, err := registry.Reserve("r1", key, 2, time.Minute, 10)
	require.NoError(t, err)

	_, released := registry.Release("r1", key)
	require.True(t, released)

	quantity, released := registry.Release("r1", key)
	assert.False(t, released)
	assert.Zero(t, quantity)

	_, released = registry.Release("never-existed", key)
	assert.False(t, released)
}

func TestConcurrentReservesNeverOversell(t *testing.T) {
	registry := domain.NewReservationRegistry()
	key := baseKey("product-1")
	const totalStock = 5
	const workers = 50

	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0
	rejected := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := registry.Reserve(fmt.Sprintf("r-%d", n), key, 1, time.Minute, totalStock)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				granted++
			} else {
				var insufficient *domain.InsufficientStockError
				assert.ErrorAs(t, err, &insufficient)
				rejected++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, totalStock, granted)
	assert.Equal(t, workers-totalStock, rejected)
	assert.Equal(t, totalStock, registry.ReservedQuantity(key))
}

func TestVariantKeysDoNotContend(t *testing.T) {
	registry := domain.NewReservationRegistry()
	size9 := domain.StockKey{ProductID: "shoe", Variant: domain.VariantKey{Size: "9"}}
	size10 := domain.StockKey{ProductID: "shoe", Variant: domain.VariantKey{Size: "10"}}

	_, err := registry.Reserve("r1", size9, 2, time.Minute, 2)
	require.NoError(t, err)

	// 尺码 9 已占满，但尺码 10 完全不受影响
	_, err = registry.Reserve("r2", size9, 1, time.Minute, 2)
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)

	_, err = registry.Reserve("r3", size10, 3, time.Minute, 3)
	assert.NoError(t, err)
}

func TestExpiredReservationsAreLazilyEvicted(t *testing.T) {
	registry := domain.NewReservationRegistry()
	key := baseKey("product-1")

	_, err := registry.Reserve("r1", key, 4, 10*time.Millisecond, 10)
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)

	// 扫描时顺手剔除过期预占，占用量随之归零
	assert.Equal(t, 0, registry.ReservedQuantity(key))
	assert.Equal(t, 0, registry.Len())
}

func TestLazyEvictionCleansGlobalIndex(t *testing.T) {
	registry := domain.NewReservationRegistry()
	key := baseKey("product-1")

	_, err := registry.Reserve("r1", key, 4, 10*time.Millisecond, 10)
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)

	// 懒剔除把索引条目一并移除，过期的 ID 立即可复用
	assert.Equal(t, 0, registry.ReservedQuantity(key))
	assert.Equal(t, 0, registry.Len())

	_, err = registry.Reserve("r1", key, 2, time.Minute, 10)
	assert.NoError(t, err)
	assert.Equal(t, 1, registry.Len())
}

func TestReserveReusesExpiredIDWithoutPriorScan(t *testing.T) {
	registry := domain.NewReservationRegistry()
	key := baseKey("product-1")

	_, err := registry.Reserve("r1", key, 4, 10*time.Millisecond, 10)
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)

	// 中间没有任何扫描触发剔除，重复检测也要识别出过期条目
	res, err := registry.Reserve("r1", key, 3, time.Minute, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Quantity)
	assert.Equal(t, 3, registry.ReservedQuantity(key))
	assert.Equal(t, 1, registry.Len())
}

func TestReleaseOfExpiredReservationIsNotFound(t *testing.T) {
	registry := domain.NewReservationRegistry()
	key := baseKey("product-1")

	_, err := registry.Reserve("r1", key, 4, 10*time.Millisecond, 10)
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)

	quantity, released := registry.Release("r1", key)
	assert.False(t, released)
	assert.Zero(t, quantity)
}

func TestEvictExpiredReturnsOnlyExpired(t *testing.T) {
	registry := domain.NewReservationRegistry()
	key := baseKey("product-1")

	_, err := registry.Reserve("short", key, 1, 10*time.Millisecond, 10)
	require.NoError(t, err)
	_, err = registry.Reserve("long", key, 2, time.Hour, 10)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	evicted := registry.EvictExpired(time.Now())

	require.Len(t, evicted, 1)
	assert.Equal(t, "short", evicted[0].ID)
	assert.Equal(t, 2, registry.ReservedQuantity(key))

	// 第二轮巡扫没有新的过期项
	assert.Empty(t, registry.EvictExpired(time.Now()))
}

func TestEvictIsFirstWriterWins(t *testing.T) {
	registry := domain.NewReservationRegistry()
	key := baseKey("product-1")

	_, err := registry.Reserve("r1", key, 1, time.Minute, 10)
	require.NoError(t, err)

	res, found := registry.Evict("r1", key)
	require.True(t, found)
	assert.Equal(t, 1, res.Quantity)

	// 另一条回收路径到达时条目已不在，为空操作
	_, found = registry.Evict("r1", key)
	assert.False(t, found)
	_, released := registry.Release("r1", key)
	assert.False(t, released)
}
