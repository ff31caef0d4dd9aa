// internal/service/inventory/application/availability.go
package application

import (
	"context"
	"errors"
	"strconv"
	"time"

	zlog "github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"storefront/internal/service/inventory/domain"
	"storefront/internal/service/inventory/domain/port"
)

const availabilityKeyPrefix = "inventory:availability:"

// AvailabilityCache 是账本+注册表合成可售量前的读穿透缓存。
//
// 它只是优化层，绝不充当准入判定的事实来源；后端缓存的任何故障
// 都会被记录并吞掉，读取回退到权威的账本+注册表重算。
type AvailabilityCache struct {
	store    port.CacheStore
	ledger   *domain.StockLedger
	registry *domain.ReservationRegistry
	ttl      time.Duration

	group singleflight.Group
}

func NewAvailabilityCache(store port.CacheStore, ledger *domain.StockLedger, registry *domain.ReservationRegistry, ttl time.Duration) *AvailabilityCache {
	return &AvailabilityCache{store: store, ledger: ledger, registry: registry, ttl: ttl}
}

func cacheKey(key domain.StockKey) string {
	return availabilityKeyPrefix + key.CacheField()
}

// Available 返回一个键的当前可售量，优先走缓存。
// 未命中时重算并回填；同一键上并发的未命中通过 singleflight 合并，
// 避免一次缓存失效后对目录存储的惊群读。
func (c *AvailabilityCache) Available(ctx context.Context, key domain.StockKey) (int, error) {
	ck := cacheKey(key)

	cached, err := c.store.Get(ctx, ck)
	if err == nil {
		if value, parseErr := strconv.Atoi(cached); parseErr == nil {
			return value, nil
		}
		// 缓存里出现了无法解析的值，当作未命中处理并覆盖掉。
		zlog.Warn().Str("key", ck).Str("value", cached).Msg("unparsable availability cache entry, recomputing")
	} else if !errors.Is(err, port.ErrCacheMiss) {
		zlog.Error().Err(err).Str("key", ck).Msg("availability cache read failed, falling back to ledger")
	}

	value, err, _ := c.group.Do(ck, func() (interface{}, error) {
		available, err := c.recompute(ctx, key)
		if err != nil {
			return 0, err
		}
		// 回填不与 Invalidate 互斥：与重算并发的一次失效之后，
		// 这里可能写回失效前的旧值。滞留最多一代，由 TTL 兜底。
		if setErr := c.store.SetWithExpiry(ctx, ck, strconv.Itoa(available), c.ttl); setErr != nil {
			zlog.Error().Err(setErr).Str("key", ck).Msg("availability cache write failed")
		}
		return available, nil
	})
	if err != nil {
		return 0, err
	}
	return value.(int), nil
}

// recompute 从权威来源重算可售量：账面库存 - 未过期预占。
func (c *AvailabilityCache) recompute(ctx context.Context, key domain.StockKey) (int, error) {
	info, err := c.ledger.GetStock(ctx, key)
	if err != nil {
		return 0, err
	}
	if !info.Active {
		// 下架商品永远不可售。
		return 0, nil
	}

	available := info.Total - c.registry.ReservedQuantity(key)
	if available < 0 {
		available = 0
	}
	return available, nil
}

// Invalidate 删除一个键的缓存条目。
// 任何改变该键真实可售量的操作 (变更账面、预占、释放、到期回收)
// 都必须在同一逻辑操作内同步调用它。
func (c *AvailabilityCache) Invalidate(ctx context.Context, key domain.StockKey) {
	ck := cacheKey(key)
	if err := c.store.Delete(ctx, ck); err != nil {
		zlog.Error().Err(err).Str("key", ck).Msg("availability cache invalidation failed")
	}
}
