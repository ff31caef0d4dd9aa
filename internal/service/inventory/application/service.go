// internal/service/inventory/application/service.go
package application

import (
	"context"
	"time"

	zlog "github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/service/inventory/domain"
	"storefront/internal/service/inventory/domain/port"
)

// DefaultReservationTTL 是调用方未指定 TTL 时的预占时长。
const DefaultReservationTTL = 15 * time.Minute

// InventoryService 是库存子系统的门面，负责编排
// 账本、预占注册表、可售量缓存、到期调度器与告警通道。
type InventoryService struct {
	catalog    domain.CatalogStore
	ledger     *domain.StockLedger
	registry   *domain.ReservationRegistry
	cache      *AvailabilityCache
	scheduler  *ExpiryScheduler
	sink       port.AlertSink
	thresholds domain.AlertThresholds
	defaultTTL time.Duration
	tracer     trace.Tracer
}

func NewInventoryService(
	catalog domain.CatalogStore,
	ledger *domain.StockLedger,
	registry *domain.ReservationRegistry,
	cache *AvailabilityCache,
	scheduler *ExpiryScheduler,
	sink port.AlertSink,
	thresholds domain.AlertThresholds,
	tracer trace.Tracer,
) *InventoryService {
	s := &InventoryService{
		catalog: catalog, ledger: ledger, registry: registry,
		cache: cache, scheduler: scheduler, sink: sink,
		thresholds: thresholds, defaultTTL: DefaultReservationTTL,
		tracer: tracer,
	}
	// 两条到期回收路径共用同一套 失效+告警 收尾逻辑。
	scheduler.Bind(s.reclaimExpired)
	return s
}

// CheckAvailability 查询一个键的可售性，缓存优先。
func (s *InventoryService) CheckAvailability(ctx context.Context, productID string, quantity int, variant domain.VariantKey) (*CheckAvailabilityResult, error) {
	ctx, span := s.tracer.Start(ctx, "inventory.CheckAvailability")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", productID), attribute.Int("quantity", quantity))

	key := domain.StockKey{ProductID: productID, Variant: variant}
	available, err := s.cache.Available(ctx, key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "availability lookup failed")
		return nil, err
	}

	canFulfill := quantity
	if available < canFulfill {
		canFulfill = available
	}
	return &CheckAvailabilityResult{
		Available:  available >= quantity,
		Stock:      available,
		Requested:  quantity,
		CanFulfill: canFulfill,
	}, nil
}

// ReserveStock 为购物车持有预占库存。
// 账面读取发生在临界区之外；准入判定 (读占用 -> 校验 -> 登记)
// 在注册表的键级临界区内原子完成，并发请求不可能合计超卖。
func (s *InventoryService) ReserveStock(ctx context.Context, req *ReserveStockRequest) (*ReserveStockResult, error) {
	ctx, span := s.tracer.Start(ctx, "inventory.ReserveStock")
	defer span.End()
	span.SetAttributes(
		attribute.String("product.id", req.ProductID),
		attribute.String("reservation.id", req.ReservationID),
		attribute.Int("quantity", req.Quantity),
	)

	key := req.key()
	info, err := s.ledger.GetStock(ctx, key)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !info.Active {
		return nil, domain.ErrProductInactive
	}

	ttl := req.TTL
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	res, err := s.registry.Reserve(req.ReservationID, key, req.Quantity, ttl, info.Total)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reservation rejected")
		return nil, err
	}

	s.scheduler.ScheduleExpiry(res)
	s.cache.Invalidate(ctx, key)
	s.notifyAvailability(ctx, key, info.Total)
	span.AddEvent("stock reserved")

	return &ReserveStockResult{
		ReservationID: res.ID,
		Quantity:      res.Quantity,
		ExpiresAt:     res.ExpiresAt(),
	}, nil
}

// ReleaseReservation 显式释放一个预占，幂等。
// 与到期回收互为竞争：先到者生效，后到者为空操作。
func (s *InventoryService) ReleaseReservation(ctx context.Context, reservationID, productID string, variant domain.VariantKey) (*ReleaseResult, error) {
	ctx, span := s.tracer.Start(ctx, "inventory.ReleaseReservation")
	defer span.End()
	span.SetAttributes(attribute.String("reservation.id", reservationID))

	key := domain.StockKey{ProductID: productID, Variant: variant}
	s.scheduler.Cancel(reservationID)

	quantity, released := s.registry.Release(reservationID, key)
	if !released {
		span.AddEvent("reservation already gone")
		return &ReleaseResult{Released: false}, nil
	}

	s.cache.Invalidate(ctx, key)
	s.notifyLedgerAvailability(ctx, key)
	return &ReleaseResult{Quantity: quantity, Released: true}, nil
}

// UpdateStock 变更账面库存，随后同步失效缓存并上报水位。
func (s *InventoryService) UpdateStock(ctx context.Context, req *UpdateStockRequest) (*UpdateStockResult, error) {
	ctx, span := s.tracer.Start(ctx, "inventory.UpdateStock")
	defer span.End()
	span.SetAttributes(
		attribute.String("product.id", req.ProductID),
		attribute.String("operation", string(req.Operation)),
		attribute.Int("quantity", req.Quantity),
	)

	key := req.key()
	oldStock, newStock, err := s.ledger.Mutate(ctx, key, req.Operation, req.Quantity)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "stock mutation failed")
		return nil, err
	}

	s.cache.Invalidate(ctx, key)
	s.notify(ctx, key, newStock)

	if req.Reason != "" {
		zlog.Info().
			Str("product_id", req.ProductID).
			Str("operation", string(req.Operation)).
			Int("old", oldStock).Int("new", newStock).
			Str("reason", req.Reason).
			Msg("stock updated")
	}
	return &UpdateStockResult{OldStock: oldStock, NewStock: newStock}, nil
}

// BatchUpdateStock 逐条应用变更，条目间互相隔离：
// 一条失败被记入该条结果，不中断、不回滚其余条目。
func (s *InventoryService) BatchUpdateStock(ctx context.Context, updates []UpdateStockRequest) []BatchUpdateResult {
	ctx, span := s.tracer.Start(ctx, "inventory.BatchUpdateStock")
	defer span.End()
	span.SetAttributes(attribute.Int("batch.size", len(updates)))

	results := make([]BatchUpdateResult, 0, len(updates))
	for i := range updates {
		update := &updates[i]
		result, err := s.UpdateStock(ctx, update)
		if err != nil {
			results = append(results, BatchUpdateResult{
				ProductID: update.ProductID,
				Success:   false,
				Error:     err.Error(),
			})
			continue
		}
		results = append(results, BatchUpdateResult{
			ProductID: update.ProductID,
			Success:   true,
			OldStock:  result.OldStock,
			NewStock:  result.NewStock,
		})
	}
	return results
}

// GenerateInventoryReport 汇总整个目录的库存状况，只读。
func (s *InventoryService) GenerateInventoryReport(ctx context.Context) (*InventoryReport, error) {
	ctx, span := s.tracer.Start(ctx, "inventory.GenerateInventoryReport")
	defer span.End()

	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	report := &InventoryReport{GeneratedAt: time.Now().UTC().Format(time.RFC3339)}
	for _, p := range products {
		report.TotalProducts++
		if !p.Active {
			continue
		}
		report.ActiveProducts++
		report.TotalValue += float64(p.Stock) * p.Price

		switch s.thresholds.LevelFor(p.Stock) {
		case domain.StockLevelOut:
			report.OutOfStock++
		case domain.StockLevelLow:
			report.LowStock++
		}
	}
	return report, nil
}

// reclaimExpired 是到期回收 (定时与巡扫两条路径) 的统一收尾：
// 失效缓存，并按回收后的可售量上报水位。
func (s *InventoryService) reclaimExpired(ctx context.Context, res domain.Reservation) {
	s.cache.Invalidate(ctx, res.Key)
	s.notifyLedgerAvailability(ctx, res.Key)
}

// notifyLedgerAvailability 重新读取账面并按当前可售量上报水位。
func (s *InventoryService) notifyLedgerAvailability(ctx context.Context, key domain.StockKey) {
	info, err := s.ledger.GetStock(ctx, key)
	if err != nil {
		zlog.Error().Err(err).Str("product_id", key.ProductID).Msg("ledger read for alert failed")
		return
	}
	s.notifyAvailability(ctx, key, info.Total)
}

// notifyAvailability 以 账面总量-当前占用 的可售量上报水位。
func (s *InventoryService) notifyAvailability(ctx context.Context, key domain.StockKey, totalStock int) {
	available := totalStock - s.registry.ReservedQuantity(key)
	if available < 0 {
		available = 0
	}
	s.notify(ctx, key, available)
}

// notify 异步投递水位告警。投递是 fire-and-forget 的：
// 告警通道的故障只记日志，绝不影响触发它的库存操作。
func (s *InventoryService) notify(ctx context.Context, key domain.StockKey, stock int) {
	level := s.thresholds.LevelFor(stock)
	alert := domain.NewStockAlert(key, level, stock)

	detached := context.WithoutCancel(ctx)
	go func() {
		if err := s.sink.Notify(detached, alert); err != nil {
			zlog.Error().Err(err).
				Str("product_id", alert.ProductID).
				Str("level", string(alert.Level)).
				Msg("stock alert delivery failed")
		}
	}()
}
