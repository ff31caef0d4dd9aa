// cmd/inventory-service/main.go
package main

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"storefront/internal/pkg/bootstrap"
	"storefront/internal/pkg/mq"
	"storefront/internal/pkg/redis"
	"storefront/internal/service/inventory/application"
	"storefront/internal/service/inventory/domain"
	"storefront/internal/service/inventory/domain/port"
	"storefront/internal/service/inventory/infrastructure"
	"storefront/internal/service/inventory/infrastructure/adapter"
	"storefront/internal/service/inventory/interfaces"
)

const serviceName = "inventory-service"

// main 函数是应用的"组装根" (Composition Root)：
// 创建并组装所有依赖项，然后把控制权交给 bootstrap。
func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zlog.Logger = zlog.With().Str("service", serviceName).Logger()

	if err := bootstrap.Init(); err != nil {
		zlog.Fatal().Err(err).Msg("failed to load config")
	}
	cfg := bootstrap.GetCurrentConfig()

	// 1. 基础设施客户端
	db, err := gorm.Open(mysql.Open(cfg.Infra.MySQLDSN), &gorm.Config{})
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to connect to mysql")
	}
	catalog := infrastructure.NewGormCatalogRepository(db)
	if cfg.App.AutoMigrateCatalog {
		if err := catalog.AutoMigrate(); err != nil {
			zlog.Fatal().Err(err).Msg("failed to migrate catalog schema")
		}
	}

	redisClient, err := redis.NewClient(cfg.Infra.RedisAddrs)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to initialize redis client")
	}
	defer redisClient.Close()

	// 2. 告警通道在装配时选定，而不是运行期动态订阅
	var sink port.AlertSink
	var closeSink func() error
	if cfg.App.AlertTransport == "kafka" {
		writer := mq.NewKafkaWriter(strings.Split(cfg.Infra.Kafka.Brokers, ","), cfg.App.AlertTopic)
		kafkaSink := adapter.NewAlertKafkaAdapter(writer)
		sink, closeSink = kafkaSink, kafkaSink.Close
	} else {
		sink = adapter.NewAlertLogAdapter()
	}

	// 3. 组装库存子系统
	ledger := domain.NewStockLedger(catalog)
	registry := domain.NewReservationRegistry()
	cache := application.NewAvailabilityCache(
		infrastructure.NewRedisCacheStore(redisClient), ledger, registry, cfg.AvailabilityTTL())
	scheduler := application.NewExpiryScheduler(registry, cfg.ReservationSweep())

	thresholds := domain.AlertThresholds{Low: cfg.App.LowStockThreshold, Out: cfg.App.OutOfStockLevel}
	service := application.NewInventoryService(
		catalog, ledger, registry, cache, scheduler, sink, thresholds, otel.Tracer(serviceName))

	// 4. 启动兜底巡扫
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go scheduler.Start(sweepCtx)

	handler := interfaces.NewInventoryHandler(service)
	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8083,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			handler.RegisterRoutes(appCtx.Mux)
		},
		OnShutdown: func(ctx context.Context) {
			stopSweep()
			if closeSink != nil {
				if err := closeSink(); err != nil {
					zlog.Error().Err(err).Msg("error closing alert sink")
				}
			}
		},
	})
}
