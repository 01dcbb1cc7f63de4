package server

import (
	"net/http"

	"infusesecret/internal/constants"
	"infusesecret/internal/httputil"
	"infusesecret/internal/message"
	"infusesecret/internal/photo"
	"infusesecret/internal/platform/config"
	"infusesecret/internal/platform/health"
	"infusesecret/internal/platform/logger"
	"infusesecret/internal/platform/metrics"
	"infusesecret/internal/platform/middleware"

	"github.com/gin-gonic/gin"
)

// Deps 路由相依.
type Deps struct {
	Messages *message.Service
	// Photos 為 nil 表示未啟用照片上傳.
	Photos   *photo.Presigner
	Limiters *Limiters
}

// Router 設定路由與中間件.
func Router(cfg *config.Config, deps Deps) *gin.Engine {
	r := gin.New()
	// nil 表示不信任任何代理，ClientIP 只取連線來源位址
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		logger.LogErrorf("信任代理設定無效，改為不信任任何代理: %v", err)
		_ = r.SetTrustedProxies(nil)
	}

	maxBody := cfg.Limits.Request.MaxBodySize
	if maxBody <= 0 {
		maxBody = constants.DefaultMaxRequestBodySize
	}

	r.Use(
		middleware.Recovery(),
		middleware.RequestIDMiddleware(),
		middleware.CORS(cfg.Server.AllowedOrigins),
		middleware.SecurityHeaders(),
		middleware.RequestMetadataMiddleware(),
		middleware.AccessLog(),
		metrics.Middleware(),
		middleware.RequestSizeLimiter(maxBody),
	)

	// 直接傳入 nil *Service 會成為非 nil 介面，須保持 nil 讓健康檢查回報 degraded
	var pinger health.Pinger
	if deps.Messages != nil {
		pinger = deps.Messages
	}
	healthHandler := health.NewHealthHandler(pinger, cfg.Database.Driver, cfg.App.Version)
	r.GET("/health", healthHandler.HealthCheck)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	api.GET("/health", healthHandler.HealthCheck)

	var createGuard []gin.HandlerFunc
	if deps.Limiters != nil {
		api.Use(middleware.RateLimit(deps.Limiters.Default, "api"))
		createGuard = append(createGuard, middleware.RateLimit(deps.Limiters.Create, "create"))
	}

	messageHandler := message.NewMessageHandler(deps.Messages)
	messageHandler.RegisterRoutes(api, createGuard...)

	photo.NewHandler(deps.Photos).RegisterRoutes(api, createGuard...)

	admin := api.Group("/admin", middleware.AdminAuth(
		[]byte(cfg.Security.Admin.JWTSecret),
		cfg.Security.Admin.JWTIssuer,
		cfg.Security.Admin.JWTEnabled,
	))
	admin.GET("/messages", messageHandler.ListMessages)

	r.NoRoute(func(c *gin.Context) {
		httputil.NotFoundError(c, httputil.RouteNotFound)
	})

	return r
}

// HTTPServer 依配置建立 http.Server.
func HTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	timeout := secondsOr(cfg.Server.Timeout, constants.DefaultRequestTimeout)
	return &http.Server{
		Addr:              config.GetServerAddr(),
		Handler:           handler,
		ReadHeaderTimeout: timeout,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout,
		IdleTimeout:       4 * timeout,
	}
}
