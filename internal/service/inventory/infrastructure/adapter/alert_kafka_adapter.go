package adapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"storefront/internal/pkg/mq"
	"storefront/internal/service/inventory/domain"
)

// AlertKafkaAdapter 是 port.AlertSink 接口的 Kafka 实现。
// 事件发往通知服务消费的告警主题，投递由门面按 fire-and-forget 处理。
type AlertKafkaAdapter struct {
	writer *kafka.Writer
}

// NewAlertKafkaAdapter 创建一个新的告警生产者适配器。
func NewAlertKafkaAdapter(writer *kafka.Writer) *AlertKafkaAdapter {
	return &AlertKafkaAdapter{writer: writer}
}

// Notify 将水位告警事件序列化后投递到 Kafka。
func (a *AlertKafkaAdapter) Notify(ctx context.Context, alert domain.StockAlert) error {
	eventBytes, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal stock alert: %w", err)
	}

	// 调用通用的 mq.ProduceMessage，它会自动处理追踪上下文注入
	return mq.ProduceMessage(ctx, a.writer, []byte(alert.ProductID), eventBytes)
}

// Close 关闭底层的Kafka writer。
func (a *AlertKafkaAdapter) Close() error {
	return a.writer.Close()
}
