// internal/service/inventory/domain/reservation.go
package domain

import (
	"sync"
	"time"
)

// Reservation 表示一次对库存的临时占用："购物者此刻把它放进了购物车"。
// 生命周期完全由 ReservationRegistry 管理，从不落库。
type Reservation struct {
	ID        string
	Key       StockKey
	Quantity  int
	CreatedAt time.Time
	TTL       time.Duration
}

// ExpiresAt 返回预占的到期时刻。
func (r *Reservation) ExpiresAt() time.Time {
	return r.CreatedAt.Add(r.TTL)
}

// Expired 判断预占在给定时刻是否已过期。
func (r *Reservation) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt())
}

// keyTable 是单个 (商品, 规格) 键下的预占集合。
// 每个键持有自己的互斥锁：竞争按商品隔离，不同商品互不阻塞。
type keyTable struct {
	mu           sync.Mutex
	reservations map[string]*Reservation
}

// ReservationRegistry 负责预占的并发安全登记，独立于账面库存。
//
// 存储采用 "arena + 索引" 结构：按 StockKey 分表存放预占实体，
// 另有一张全局的 预占ID -> StockKey 索引用于重复检测和全量巡扫。
type ReservationRegistry struct {
	mu    sync.RWMutex
	keys  map[StockKey]*keyTable
	index map[string]StockKey
}

func NewReservationRegistry() *ReservationRegistry {
	return &ReservationRegistry{
		keys:  make(map[StockKey]*keyTable),
		index: make(map[string]StockKey),
	}
}

// table 返回指定键的分表，必要时创建。
func (reg *ReservationRegistry) table(key StockKey) *keyTable {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	t, ok := reg.keys[key]
	if !ok {
		t = &keyTable{reservations: make(map[string]*Reservation)}
		reg.keys[key] = t
	}
	return t
}

// Reserve 在一个键级临界区内完成 "读可用量 -> 校验 -> 登记" 三步。
// totalStock 是调用方在临界区外从账面读到的总库存；
// 两个并发调用者即便拿到相同的账面数，锁内的占用量求和
// 也保证它们的合计申请不会超过账面库存。
func (reg *ReservationRegistry) Reserve(id string, key StockKey, quantity int, ttl time.Duration, totalStock int) (*Reservation, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	reg.mu.Lock()
	existingKey, exists := reg.index[id]
	reg.mu.Unlock()
	// 索引里挂着的 ID 若对应的预占已过期，ID 立即可复用。
	if exists && !reg.evictIfExpired(id, existingKey) {
		return nil, ErrDuplicateReservation
	}

	t := reg.table(key)
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	reserved, evicted := t.reservedLocked(now)
	reg.dropIndex(evicted)
	available := totalStock - reserved
	if available < 0 {
		available = 0
	}
	if quantity > available {
		return nil, &InsufficientStockError{Available: available, Requested: quantity}
	}

	res := &Reservation{ID: id, Key: key, Quantity: quantity, CreatedAt: now, TTL: ttl}
	t.reservations[id] = res

	reg.mu.Lock()
	// 锁序固定为 表锁 -> 注册表锁；其余路径不反向嵌套这两把锁。
	if _, exists := reg.index[id]; exists {
		reg.mu.Unlock()
		delete(t.reservations, id)
		return nil, ErrDuplicateReservation
	}
	reg.index[id] = key
	reg.mu.Unlock()

	return res, nil
}

// Release 幂等地释放一个预占。
// 预占不存在或已被回收时返回 ok=false，这是正常结果而不是错误：
// 显式释放与到期回收谁先到都可以，后到者是空操作。
func (reg *ReservationRegistry) Release(id string, key StockKey) (quantity int, ok bool) {
	t := reg.table(key)
	t.mu.Lock()
	res, found := t.reservations[id]
	if found {
		delete(t.reservations, id)
	}
	t.mu.Unlock()

	if !found {
		return 0, false
	}

	reg.mu.Lock()
	delete(reg.index, id)
	reg.mu.Unlock()

	// 已过期但尚未被巡扫回收的预占，同样按 "未找到" 处理。
	if res.Expired(time.Now()) {
		return 0, false
	}
	return res.Quantity, true
}

// Evict 无条件移除一个预占并返回它，供到期回收路径使用。
// 与 Release 不同，已过期但仍在册的预占也算命中：
// 回收方需要对它做缓存失效和告警。条目不存在时 found=false，
// 说明另一条回收路径 (显式释放或巡扫) 已经处理过，本次为空操作。
func (reg *ReservationRegistry) Evict(id string, key StockKey) (res Reservation, found bool) {
	t := reg.table(key)
	t.mu.Lock()
	entry, ok := t.reservations[id]
	if ok {
		delete(t.reservations, id)
	}
	t.mu.Unlock()

	if !ok {
		return Reservation{}, false
	}

	reg.mu.Lock()
	delete(reg.index, id)
	reg.mu.Unlock()
	return *entry, true
}

// ReservedQuantity 统计一个键下所有未过期预占的数量之和。
// 扫描途中发现的过期预占会被顺手剔除，连同它们的全局索引条目。
func (reg *ReservationRegistry) ReservedQuantity(key StockKey) int {
	t := reg.table(key)
	t.mu.Lock()
	defer t.mu.Unlock()
	sum, evicted := t.reservedLocked(time.Now())
	reg.dropIndex(evicted)
	return sum
}

// reservedLocked 必须在 t.mu 持有时调用。
// 被剔除条目的 ID 交还调用方，由其负责从全局索引中移除。
func (t *keyTable) reservedLocked(now time.Time) (sum int, evicted []string) {
	for id, res := range t.reservations {
		if res.Expired(now) {
			delete(t.reservations, id)
			evicted = append(evicted, id)
			continue
		}
		sum += res.Quantity
	}
	return sum, evicted
}

// dropIndex 移除懒剔除产生的索引条目。
// 允许在持有表锁时调用，锁序仍是 表锁 -> 注册表锁。
func (reg *ReservationRegistry) dropIndex(ids []string) {
	if len(ids) == 0 {
		return
	}
	reg.mu.Lock()
	for _, id := range ids {
		delete(reg.index, id)
	}
	reg.mu.Unlock()
}

// evictIfExpired 检查索引里一个已登记 ID 对应的预占是否仍存活。
// 已过期或已被懒剔除的条目被顺手清理，返回 true 表示 ID 可复用。
func (reg *ReservationRegistry) evictIfExpired(id string, key StockKey) bool {
	t := reg.table(key)
	t.mu.Lock()
	entry, ok := t.reservations[id]
	if ok && !entry.Expired(time.Now()) {
		t.mu.Unlock()
		return false
	}
	if ok {
		delete(t.reservations, id)
	}
	t.mu.Unlock()

	reg.mu.Lock()
	delete(reg.index, id)
	reg.mu.Unlock()
	return true
}

// EvictExpired 全量巡扫所有键，剔除已过期的预占并返回它们，
// 供调度器对每个受影响的键做缓存失效和告警。
func (reg *ReservationRegistry) EvictExpired(now time.Time) []Reservation {
	reg.mu.RLock()
	tables := make(map[StockKey]*keyTable, len(reg.keys))
	for key, t := range reg.keys {
		tables[key] = t
	}
	reg.mu.RUnlock()

	var evicted []Reservation
	for _, t := range tables {
		t.mu.Lock()
		for id, res := range t.reservations {
			if res.Expired(now) {
				delete(t.reservations, id)
				evicted = append(evicted, *res)
			}
		}
		t.mu.Unlock()
	}

	if len(evicted) > 0 {
		reg.mu.Lock()
		for i := range evicted {
			delete(reg.index, evicted[i].ID)
		}
		reg.mu.Unlock()
	}
	return evicted
}

// Len 返回当前登记在册的预占总数，仅用于观测。
func (reg *ReservationRegistry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.index)
}
