package infrastructure

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"storefront/internal/pkg/redis"
	"storefront/internal/service/inventory/domain/port"
)

// RedisCacheStore 是 port.CacheStore 接口的 Redis 实现。
type RedisCacheStore struct {
	client *redis.Client
}

// NewRedisCacheStore 创建一个新的缓存存储适配器实例。
func NewRedisCacheStore(client *redis.Client) *RedisCacheStore {
	return &RedisCacheStore{client: client}
}

// Get 读取键值，键不存在时返回 port.ErrCacheMiss。
func (s *RedisCacheStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.GetClient().Get(ctx, key).Result()
	if err != nil {
		if err == goredis.Nil {
			return "", port.ErrCacheMiss
		}
		return "", err
	}
	return value, nil
}

// SetWithExpiry 写入键值并设置过期时间。
func (s *RedisCacheStore) SetWithExpiry(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.GetClient().Set(ctx, key, value, ttl).Err()
}

// Delete 删除键，键不存在视为成功。
func (s *RedisCacheStore) Delete(ctx context.Context, key string) error {
	return s.client.GetClient().Del(ctx, key).Err()
}
