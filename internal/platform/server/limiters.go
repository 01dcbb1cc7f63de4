package server

import (
	"infusesecret/internal/constants"
	"infusesecret/internal/platform/config"
	"infusesecret/internal/platform/middleware"

	"github.com/redis/go-redis/v9"
)

// Limiters 一般端點與建立端點的速率限制器.
type Limiters struct {
	Default middleware.Limiter
	Create  middleware.Limiter

	closers []func()
}

// NewLimiters 依配置建立速率限制器；未啟用時回傳 nil.
// 後端為 redis 時 client 不可為 nil.
func NewLimiters(cfg config.RateLimitingConfig, client redis.Cmdable) *Limiters {
	if !cfg.Enabled {
		return nil
	}

	defaultRate := cfg.DefaultPerMinute
	if defaultRate <= 0 {
		defaultRate = constants.DefaultRateLimitPerMinute
	}
	createRate := cfg.CreatePerMinute
	if createRate <= 0 {
		createRate = constants.DefaultCreateRateLimit
	}

	if cfg.Backend == config.RateLimitBackendRedis && client != nil {
		return &Limiters{
			Default: middleware.NewRedisRateLimiter(client, defaultRate, constants.RateLimitWindow),
			Create:  middleware.NewRedisRateLimiter(client, createRate, constants.RateLimitWindow),
		}
	}

	def := middleware.NewRateLimiter(defaultRate, constants.RateLimitWindow)
	create := middleware.NewRateLimiter(createRate, constants.RateLimitWindow)
	return &Limiters{
		Default: def,
		Create:  create,
		closers: []func(){def.Close, create.Close},
	}
}

// Close 停止行程內限制器的背景清理.
func (l *Limiters) Close() {
	if l == nil {
		return
	}
	for _, c := range l.closers {
		c()
	}
}
