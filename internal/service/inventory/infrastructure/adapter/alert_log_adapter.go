package adapter

import (
	"context"

	zlog "github.com/rs/zerolog/log"

	"storefront/internal/service/inventory/domain"
)

// AlertLogAdapter 是 port.AlertSink 接口的日志实现，
// 用于没有消息中间件的环境 (本地开发、测试)。
type AlertLogAdapter struct{}

func NewAlertLogAdapter() *AlertLogAdapter {
	return &AlertLogAdapter{}
}

// Notify 将水位告警写入结构化日志。
func (a *AlertLogAdapter) Notify(_ context.Context, alert domain.StockAlert) error {
	event := zlog.Info()
	if alert.Level != domain.StockLevelOK {
		event = zlog.Warn()
	}
	event.
		Str("product_id", alert.ProductID).
		Str("size", alert.Size).
		Str("color", alert.Color).
		Str("level", string(alert.Level)).
		Int("stock", alert.Stock).
		Msg("stock level alert")
	return nil
}
