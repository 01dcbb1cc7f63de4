package driver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"infusesecret/internal/platform/config"
	"infusesecret/internal/platform/logger"

	"github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

// NewRedisOptions 由配置建立連線選項；Addr 可為 host:port 或 redis:// URL.
func NewRedisOptions(cfg config.RedisConfig) (*redis.Options, error) {
	if strings.HasPrefix(cfg.Addr, "redis://") || strings.HasPrefix(cfg.Addr, "rediss://") {
		opts, err := redis.ParseURL(cfg.Addr)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		if cfg.Password != "" {
			opts.Password = cfg.Password
		}
		return opts, nil
	}

	return &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}, nil
}

// InitRedis 初始化 Redis 連接.
func InitRedis(cfg config.RedisConfig) error {
	opts, err := NewRedisOptions(cfg)
	if err != nil {
		return err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to ping Redis: %w", err)
	}

	redisClient = client
	logger.LogInfof("Redis connected successfully")
	return nil
}

// GetRedisClient 獲取 Redis 客戶端.
func GetRedisClient() *redis.Client {
	return redisClient
}

// CloseRedis 關閉 Redis 連接.
func CloseRedis() error {
	if redisClient == nil {
		return nil
	}
	err := redisClient.Close()
	redisClient = nil
	return err
}
