package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"infusesecret/internal/message"
	"infusesecret/internal/photo"
	"infusesecret/internal/platform/config"
	"infusesecret/internal/platform/driver"
	"infusesecret/internal/platform/logger"
	"infusesecret/internal/platform/server"
	"infusesecret/internal/security/audit"
	"infusesecret/internal/storage/database"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := mainNoExit(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// mainNoExit 分離主要邏輯以避免 exitAfterDefer 問題，確保 defer 函數正常執行.
func mainNoExit() error {
	// 載入配置；日誌輪轉設定來自配置，因此先於日誌初始化.
	if err := config.Load(); err != nil {
		return err
	}
	cfg := config.Get()

	if err := logger.InitLogger(); err != nil {
		return err
	}
	defer logger.CloseLogger()

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "正在啟動 InfuseSecret API 伺服器...", logger.WithDetails(map[string]interface{}{
		"env":    config.GetEnv(),
		"driver": cfg.Database.Driver,
	}))

	conns, closeDB, err := connectDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	repos, err := database.NewRepositories(ctx, cfg, conns)
	if err != nil {
		return err
	}

	svc := message.NewService(repos.Message, message.Options{
		FrontendURL: config.GetFrontendURL(),
		QREndpoint:  cfg.QR.Endpoint,
		QRSize:      cfg.QR.Size,
		Limits:      message.LimitsFromConfig(cfg.Limits),
		Audit:       audit.NewAuditService(cfg.Security.Audit.Enabled),
	})

	var presigner *photo.Presigner
	if cfg.Photos.Enabled {
		presigner, err = photo.NewPresigner(ctx, cfg.Photos)
		if err != nil {
			return fmt.Errorf("photo presigner: %w", err)
		}
	}

	var redisClient redis.Cmdable
	if cfg.Limits.RateLimiting.Enabled && cfg.Limits.RateLimiting.Backend == config.RateLimitBackendRedis {
		if err := driver.InitRedis(cfg.Redis); err != nil {
			return err
		}
		defer func() {
			if err := driver.CloseRedis(); err != nil {
				logger.Errorf(ctx, "關閉 Redis 連接失敗: %v", err)
			}
		}()
		redisClient = driver.GetRedisClient()
	}

	limiters := server.NewLimiters(cfg.Limits.RateLimiting, redisClient)
	defer limiters.Close()

	router := server.Router(cfg, server.Deps{
		Messages: svc,
		Photos:   presigner,
		Limiters: limiters,
	})

	return server.Run(ctx, cfg, server.HTTPServer(cfg, router))
}

// connectDatabase 依驅動建立連線，回傳對應的關閉函數.
func connectDatabase(cfg *config.Config) (database.Connections, func(), error) {
	ctx := context.Background()

	switch cfg.Database.Driver {
	case config.DriverMongo:
		if err := driver.ConnectMongo(); err != nil {
			return database.Connections{}, nil, err
		}
		return database.Connections{Mongo: driver.GetMongoDatabase()}, func() {
			if err := driver.CloseMongo(); err != nil {
				logger.Errorf(ctx, "關閉 MongoDB 連接失敗: %v", err)
			}
		}, nil

	case config.DriverPostgres:
		if err := driver.InitPostgres(cfg.Database.Postgres); err != nil {
			return database.Connections{}, nil, err
		}
		return database.Connections{Postgres: driver.GetPostgresDB()}, func() {
			if err := driver.ClosePostgres(); err != nil {
				logger.Errorf(ctx, "關閉 PostgreSQL 連接失敗: %v", err)
			}
		}, nil

	default:
		return database.Connections{}, func() {}, nil
	}
}
