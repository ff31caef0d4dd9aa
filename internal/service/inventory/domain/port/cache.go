package port

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss 表示键不存在，是正常的未命中而非故障。
var ErrCacheMiss = errors.New("cache miss")

// CacheStore 是字符串键值缓存的出站端口 (Redis 实现)。
// 缓存只是优化层：任何实现的故障都不得影响库存操作的正确性。
type CacheStore interface {
	// Get 读取键值，未命中返回 ErrCacheMiss。
	Get(ctx context.Context, key string) (string, error)

	// SetWithExpiry 写入键值并设置过期时间。
	SetWithExpiry(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete 删除键，键不存在视为成功。
	Delete(ctx context.Context, key string) error
}
