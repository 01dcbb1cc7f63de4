package health

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"infusesecret/internal/platform/logger"

	"github.com/gin-gonic/gin"
)

const (
	// 健康狀態常數.
	statusOK       = "ok"
	statusDegraded = "degraded"
	statusHealthy  = "healthy"
	statusDown     = "unhealthy"

	serviceMessage = "InfuseSecret API is running"

	// 記憶體相關常數.
	memoryMB = 1024 * 1024

	// 超時常數.
	dbTimeout = 5 * time.Second
)

// Pinger 可檢查連線狀態的儲存層.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler 健康檢查處理器.
type Handler struct {
	db      Pinger
	driver  string
	version string
	now     func() time.Time
}

// NewHealthHandler 創建新的健康檢查處理器.
func NewHealthHandler(db Pinger, driver, version string) *Handler {
	return &Handler{db: db, driver: driver, version: version, now: time.Now}
}

// HealthCheck 健康檢查端點.
//
// 資料庫不可用時整體狀態為 degraded，但仍回傳 200，讓監控系統區分服務本身與相依服務.
func (h *Handler) HealthCheck(c *gin.Context) {
	dbStatus := statusHealthy
	dbError := ""

	if err := h.checkDatabase(c.Request.Context()); err != nil {
		dbStatus = statusDown
		dbError = "database unavailable"
		logger.Warning(c.Request.Context(), fmt.Sprintf("健康檢查 - 資料庫連線失敗: %v", err),
			logger.WithAction("health_check"))
	}

	status := statusOK
	if dbStatus != statusHealthy {
		status = statusDegraded
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := gin.H{
		"status":    status,
		"message":   serviceMessage,
		"timestamp": h.now().UTC().Format(time.RFC3339),
		"version":   h.version,
		"database": gin.H{
			"status": dbStatus,
			"driver": h.driver,
		},
		"system": gin.H{
			"goroutines": runtime.NumGoroutine(),
			"memory_mb":  fmt.Sprintf("%.2f", float64(m.Sys)/memoryMB),
			"uptime":     time.Since(startTime).Round(time.Second).String(),
		},
	}
	if dbError != "" {
		response["database"].(gin.H)["error"] = dbError
	}

	c.JSON(http.StatusOK, response)
}

// checkDatabase 檢查資料庫連線.
func (h *Handler) checkDatabase(parent context.Context) error {
	if h.db == nil {
		return fmt.Errorf("database connection not available")
	}

	ctx, cancel := context.WithTimeout(parent, dbTimeout)
	defer cancel()
	return h.db.Ping(ctx)
}

// 記錄服務啟動時間.
var startTime = time.Now()
