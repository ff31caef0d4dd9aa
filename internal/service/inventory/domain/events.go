// internal/service/inventory/domain/events.go
package domain

// StockLevel 定义了库存水位的告警级别
type StockLevel string

const (
	StockLevelOK  StockLevel = "OK"           // 水位正常
	StockLevelLow StockLevel = "LOW_STOCK"    // 低于低库存阈值
	StockLevelOut StockLevel = "OUT_OF_STOCK" // 已无可售库存
)

// AlertThresholds 是水位判定的阈值配置。
type AlertThresholds struct {
	Low int // stock <= Low 触发低库存
	Out int // stock <= Out 触发缺货
}

// DefaultAlertThresholds 返回默认阈值：低库存 10，缺货 0。
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{Low: 10, Out: 0}
}

// LevelFor 根据当前库存数计算告警级别。
func (t AlertThresholds) LevelFor(stock int) StockLevel {
	switch {
	case stock <= t.Out:
		return StockLevelOut
	case stock <= t.Low:
		return StockLevelLow
	default:
		return StockLevelOK
	}
}

// StockAlert 是发往告警消费者的事件载体。
type StockAlert struct {
	ProductID string     `json:"productId"`
	Size      string     `json:"size,omitempty"`
	Color     string     `json:"color,omitempty"`
	Level     StockLevel `json:"level"`
	Stock     int        `json:"stock"`
}

// NewStockAlert 根据库存键和当前水位构造告警事件。
func NewStockAlert(key StockKey, level StockLevel, stock int) StockAlert {
	return StockAlert{
		ProductID: key.ProductID,
		Size:      key.Variant.Size,
		Color:     key.Variant.Color,
		Level:     level,
		Stock:     stock,
	}
}
