// Package cache provides an optional redis-backed response cache for hot
// read endpoints. When no redis address is configured the middleware is a
// no-op and the rest of the app never notices.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrMiss 表示键不存在
var ErrMiss = errors.New("cache miss")

// Cache 包装 redis 客户端，按键存取 JSON 值。
type Cache struct {
	client *redis.Client
	logger *zap.Logger
}

// Connect 建立 redis 连接，失败直接返回错误，由调用方决定是否降级。
func Connect(addr string, logger *zap.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	logger.Info("redis connected", zap.String("addr", addr))
	return &Cache{client: client, logger: logger}, nil
}

// Set 序列化并写入键值
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

// Get 读取并反序列化键值，未命中返回 ErrMiss
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return fmt.Errorf("get cache value: %w", err)
	}
	return json.Unmarshal([]byte(val), dest)
}

// InvalidateUser 清除某用户的全部缓存条目
func (c *Cache) InvalidateUser(ctx context.Context, userID uint) error {
	pattern := fmt.Sprintf("cache:%d:*", userID)

	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("scan cache keys: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("delete cache keys: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Close 关闭底层连接
func (c *Cache) Close() error {
	return c.client.Close()
}
