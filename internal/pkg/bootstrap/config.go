// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 汇总了库存服务的全部可调参数。
// 优先读 CONFIG_PATH 指向的 yaml 文件，缺省值从环境变量兜底。
type Config struct {
	App struct {
		LowStockThreshold       int     `yaml:"lowStockThreshold"`
		OutOfStockLevel         int     `yaml:"outOfStockLevel"`
		AvailabilityTTLSeconds  int     `yaml:"availabilityTTLSeconds"`
		ReservationSweepSeconds int     `yaml:"reservationSweepSeconds"`
		TraceSampleRatio        float64 `yaml:"traceSampleRatio"`
		AlertTransport          string  `yaml:"alertTransport"` // "kafka" | "log"
		AlertTopic              string  `yaml:"alertTopic"`
		AutoMigrateCatalog      bool    `yaml:"autoMigrateCatalog"`
	} `yaml:"app"`
	Infra struct {
		MySQLDSN   string `yaml:"mysqlDSN"`
		RedisAddrs string `yaml:"redisAddrs"`
		Kafka      struct {
			Brokers string `yaml:"brokers"`
		} `yaml:"kafka"`
		Jaeger struct {
			Endpoint string `yaml:"endpoint"`
		} `yaml:"jaeger"`
	} `yaml:"infra"`
}

// AvailabilityTTL 返回可售量缓存的过期时长。
func (c Config) AvailabilityTTL() time.Duration {
	return time.Duration(c.App.AvailabilityTTLSeconds) * time.Second
}

// ReservationSweep 返回兜底巡扫的周期。
func (c Config) ReservationSweep() time.Duration {
	return time.Duration(c.App.ReservationSweepSeconds) * time.Second
}

var currentConfig Config

// GetCurrentConfig 返回进程级配置，必须先调用 Init。
func GetCurrentConfig() Config {
	return currentConfig
}

// Init 加载配置。yaml 文件可选；环境变量始终兜底缺失项。
func Init() error {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return err
		}
	}

	currentConfig = cfg
	return nil
}

func defaultConfig() Config {
	var cfg Config
	cfg.App.LowStockThreshold = 10
	cfg.App.OutOfStockLevel = 0
	cfg.App.AvailabilityTTLSeconds = 300
	cfg.App.ReservationSweepSeconds = 5 * 60
	cfg.App.TraceSampleRatio = 1
	cfg.App.AlertTransport = getEnv("ALERT_TRANSPORT", "log")
	cfg.App.AlertTopic = getEnv("ALERT_TOPIC", "inventory-alerts")
	cfg.Infra.MySQLDSN = getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/storefront?parseTime=true")
	cfg.Infra.RedisAddrs = getEnv("REDIS_ADDRS", "localhost:6379")
	cfg.Infra.Kafka.Brokers = getEnv("KAFKA_BROKERS", "localhost:9092")
	cfg.Infra.Jaeger.Endpoint = getEnv("JAEGER_ENDPOINT", "http://localhost:14268/api/traces")
	return cfg
}

// getEnv 是一个内部辅助函数，从环境变量中读取配置。
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
