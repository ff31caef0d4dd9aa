// internal/service/inventory/application/dto.go
package application

import (
	"time"

	"storefront/internal/service/inventory/domain"
)

// CheckAvailabilityResult 是可售性查询的输出。
// CanFulfill = min(请求量, 可售量)，Available 表示请求量能否被完整满足。
type CheckAvailabilityResult struct {
	Available  bool `json:"available"`
	Stock      int  `json:"stock"`
	Requested  int  `json:"requested"`
	CanFulfill int  `json:"canFulfill"`
}

// ReserveStockRequest 是预占用例的输入。
// ReservationID 由调用方提供并保证唯一；TTL 为零时使用服务默认值。
type ReserveStockRequest struct {
	ReservationID string        `json:"reservationId"`
	ProductID     string        `json:"productId"`
	Size          string        `json:"size,omitempty"`
	Color         string        `json:"color,omitempty"`
	Quantity      int           `json:"quantity"`
	TTL           time.Duration `json:"-"`
}

// ReserveStockResult 是预占成功后的输出。
type ReserveStockResult struct {
	ReservationID string    `json:"reservationId"`
	Quantity      int       `json:"quantity"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// ReleaseResult 是释放预占的输出。
// 预占不存在或已过期时 Released=false，这是正常结果。
type ReleaseResult struct {
	Quantity int  `json:"quantity"`
	Released bool `json:"released"`
}

// UpdateStockRequest 是账面库存变更用例的输入。
type UpdateStockRequest struct {
	ProductID string                `json:"productId"`
	Size      string                `json:"size,omitempty"`
	Color     string                `json:"color,omitempty"`
	Operation domain.StockOperation `json:"operation"`
	Quantity  int                   `json:"quantity"`
	Reason    string                `json:"reason,omitempty"`
}

// UpdateStockResult 是账面库存变更的输出。
type UpdateStockResult struct {
	OldStock int `json:"oldStock"`
	NewStock int `json:"newStock"`
}

// BatchUpdateResult 是批量变更中单个条目的结果。
// 条目之间互相隔离：一条失败不回滚、不中断其余条目。
type BatchUpdateResult struct {
	ProductID string `json:"productId"`
	Success   bool   `json:"success"`
	OldStock  int    `json:"oldStock,omitempty"`
	NewStock  int    `json:"newStock,omitempty"`
	Error     string `json:"error,omitempty"`
}

// InventoryReport 是只读的库存汇总。
type InventoryReport struct {
	TotalProducts  int     `json:"totalProducts"`
	ActiveProducts int     `json:"activeProducts"`
	LowStock       int     `json:"lowStock"`
	OutOfStock     int     `json:"outOfStock"`
	TotalValue     float64 `json:"totalValue"`
	GeneratedAt    string  `json:"generatedAt"`
}

func (r *ReserveStockRequest) key() domain.StockKey {
	return domain.StockKey{
		ProductID: r.ProductID,
		Variant:   domain.VariantKey{Size: r.Size, Color: r.Color},
	}
}

func (r *UpdateStockRequest) key() domain.StockKey {
	return domain.StockKey{
		ProductID: r.ProductID,
		Variant:   domain.VariantKey{Size: r.Size, Color: r.Color},
	}
}
