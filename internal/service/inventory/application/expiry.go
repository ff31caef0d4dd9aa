// internal/service/inventory/application/expiry.go
package application

import (
	"context"
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"

	"storefront/internal/service/inventory/domain"
)

// DefaultSweepInterval 是兜底巡扫的默认周期。
const DefaultSweepInterval = 5 * time.Minute

// ReclaimFunc 在一个预占被回收后执行缓存失效与告警。
type ReclaimFunc func(ctx context.Context, res domain.Reservation)

// ExpiryScheduler 负责回收 TTL 已过的预占，与持有者是否显式释放无关。
//
// 两条互补的回收路径：
//  1. 每个预占创建时挂一个定时任务，在到期时刻精确触发；
//  2. 周期性全量巡扫作为兜底，覆盖定时任务丢失的情况。
//
// 两条路径都经由注册表的幂等摘除 + 同一个 reclaim 回调，
// 谁先触发谁生效，后到者是空操作。调度器由 InventoryService
// 持有并注入，定时器随显式释放一起取消，不会有孤儿定时器
// 活得比服务实例更久。
type ExpiryScheduler struct {
	registry *domain.ReservationRegistry
	interval time.Duration
	reclaim  ReclaimFunc

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewExpiryScheduler(registry *domain.ReservationRegistry, interval time.Duration) *ExpiryScheduler {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &ExpiryScheduler{
		registry: registry,
		interval: interval,
		timers:   make(map[string]*time.Timer),
	}
}

// Bind 绑定回收回调。必须在第一次 ScheduleExpiry 之前完成，
// 由 NewInventoryService 在装配时调用。
func (s *ExpiryScheduler) Bind(reclaim ReclaimFunc) {
	s.reclaim = reclaim
}

// ScheduleExpiry 为一个新预占安排到期回收任务。
func (s *ExpiryScheduler) ScheduleExpiry(res *domain.Reservation) {
	snapshot := *res
	timer := time.AfterFunc(time.Until(res.ExpiresAt()), func() {
		s.expire(snapshot)
	})

	s.mu.Lock()
	s.timers[res.ID] = timer
	s.mu.Unlock()
}

// Cancel 取消一个预占的定时任务，在显式释放时调用。
func (s *ExpiryScheduler) Cancel(reservationID string) {
	s.mu.Lock()
	timer, ok := s.timers[reservationID]
	if ok {
		delete(s.timers, reservationID)
	}
	s.mu.Unlock()

	if ok {
		timer.Stop()
	}
}

// expire 是定时路径的回收入口。
func (s *ExpiryScheduler) expire(snapshot domain.Reservation) {
	s.mu.Lock()
	delete(s.timers, snapshot.ID)
	s.mu.Unlock()

	res, found := s.registry.Evict(snapshot.ID, snapshot.Key)
	if !found {
		// 已被显式释放或巡扫抢先回收。
		return
	}

	zlog.Info().
		Str("reservation_id", res.ID).
		Str("product_id", res.Key.ProductID).
		Int("quantity", res.Quantity).
		Msg("reservation expired, stock reclaimed")
	s.reclaim(context.Background(), res)
}

// Start 启动周期巡扫，阻塞直到 ctx 结束。通常跑在独立的 goroutine 里。
func (s *ExpiryScheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	zlog.Info().Dur("interval", s.interval).Msg("reservation sweep started")
	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx)
		case <-ctx.Done():
			zlog.Info().Msg("reservation sweep stopped")
			return
		}
	}
}

// Sweep 执行一轮全量巡扫，回收所有已过期的预占。
// 单独导出是为了让到期行为可以不依赖真实时钟周期来验证。
func (s *ExpiryScheduler) Sweep(ctx context.Context) {
	evicted := s.registry.EvictExpired(time.Now())
	for i := range evicted {
		s.Cancel(evicted[i].ID) // 定时任务若还挂着，一并摘掉
		s.reclaim(ctx, evicted[i])
	}
	if len(evicted) > 0 {
		zlog.Info().Int("count", len(evicted)).Msg("sweep reclaimed expired reservations")
	}
}
