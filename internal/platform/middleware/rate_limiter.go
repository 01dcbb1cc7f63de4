package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"infusesecret/internal/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Limiter 固定窗口速率限制器.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimiter 行程內速率限制器
type RateLimiter struct {
	visitors map[string]*Visitor
	mu       sync.Mutex
	rate     int           // 每個時間窗口允許的請求數
	window   time.Duration // 時間窗口
	stop     chan struct{}
	once     sync.Once
}

// Visitor 訪問者信息
type Visitor struct {
	lastSeen  time.Time
	requests  int
	resetTime time.Time
}

// NewRateLimiter 創建新的速率限制器
// rate: 每個時間窗口允許的請求數
// window: 時間窗口（例如：time.Minute）
func NewRateLimiter(rate int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*Visitor),
		rate:     rate,
		window:   window,
		stop:     make(chan struct{}),
	}

	go rl.cleanupVisitors()

	return rl
}

// Allow 檢查是否允許請求
func (rl *RateLimiter) Allow(_ context.Context, key string) (bool, error) {
	return rl.allowRequest(key, time.Now()), nil
}

// Close 停止背景清理.
func (rl *RateLimiter) Close() {
	rl.once.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) allowRequest(key string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	visitor, exists := rl.visitors[key]
	if !exists {
		rl.visitors[key] = &Visitor{
			lastSeen:  now,
			requests:  1,
			resetTime: now.Add(rl.window),
		}
		return true
	}

	// 時間窗口已過期，重置計數器
	if now.After(visitor.resetTime) {
		visitor.requests = 1
		visitor.resetTime = now.Add(rl.window)
		visitor.lastSeen = now
		return true
	}

	visitor.lastSeen = now
	if visitor.requests >= rl.rate {
		return false
	}

	visitor.requests++
	return true
}

// cleanupVisitors 定期清理過期的訪問者記錄
func (rl *RateLimiter) cleanupVisitors() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case now := <-ticker.C:
			rl.mu.Lock()
			for key, visitor := range rl.visitors {
				// 超過兩個窗口沒有活動即刪除
				if now.Sub(visitor.lastSeen) > 2*rl.window {
					delete(rl.visitors, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// windowIncrScript 在同一個原子操作中遞增計數並確保鍵帶有過期時間.
// 任何沒有 TTL 的計數鍵（例如舊版本遺留）都會在下次遞增時補上.
var windowIncrScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if redis.call("PTTL", KEYS[1]) < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// RedisRateLimiter 以 Redis Lua 腳本（INCR + PEXPIRE）實作的跨實例速率限制器.
type RedisRateLimiter struct {
	client redis.Cmdable
	rate   int
	window time.Duration
	prefix string
}

// NewRedisRateLimiter 創建 Redis 速率限制器.
func NewRedisRateLimiter(client redis.Cmdable, rate int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{
		client: client,
		rate:   rate,
		window: window,
		prefix: "ratelimit:",
	}
}

// Allow 原子地遞增窗口計數並設定過期時間.
func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := rl.prefix + key

	count, err := windowIncrScript.Run(ctx, rl.client, []string{redisKey}, rl.window.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("redis window incr: %w", err)
	}

	return count <= int64(rl.rate), nil
}

// RateLimit 依客戶端 IP 套用速率限制；scope 區分不同端點的計數.
// 限制器本身出錯時放行請求並記錄警告.
func RateLimit(limiter Limiter, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := scope + ":" + GetClientIP(c)

		allowed, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			logger.Warning(c.Request.Context(), "速率限制器錯誤，放行請求",
				logger.WithRequestID(GetRequestID(c)),
				logger.WithDetails(map[string]interface{}{"scope": scope, "error": err.Error()}))
			c.Next()
			return
		}

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":      "Too many requests, please try again later",
				"success":    false,
				"request_id": GetRequestID(c),
			})
			return
		}

		c.Next()
	}
}
