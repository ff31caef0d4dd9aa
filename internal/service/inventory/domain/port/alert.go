package port

import (
	"context"

	"storefront/internal/service/inventory/domain"
)

// AlertSink 是库存水位告警的出站端口。
// 实现按投递通道划分 (日志 / Kafka)，在装配时选定，
// 而不是通过运行期的动态订阅注册。
type AlertSink interface {
	// Notify 投递一条水位告警。发送方按 fire-and-forget 处理：
	// 返回的错误只用于记录，绝不让触发告警的库存操作失败。
	Notify(ctx context.Context, alert domain.StockAlert) error
}
