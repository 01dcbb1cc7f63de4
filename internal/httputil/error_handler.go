package httputil

import (
	"errors"
	"fmt"
	"net/http"

	"infusesecret/internal/platform/logger"
	"infusesecret/internal/platform/middleware"

	"github.com/gin-gonic/gin"
)

// PublicError 可安全回傳給呼叫端的錯誤.
type PublicError interface {
	error
	HTTPStatus() int
	PublicMessage() string
}

// WriteError 依錯誤類型回應：PublicError 使用自身狀態碼與訊息，其餘一律 500.
func WriteError(c *gin.Context, err error) {
	var pub PublicError
	if errors.As(err, &pub) && pub.HTTPStatus() < http.StatusInternalServerError {
		respond(c, pub.HTTPStatus(), pub.PublicMessage())
		return
	}
	InternalServerError(c, err)
}

// SafeError 安全的錯誤響應（不洩露內部信息）
func SafeError(c *gin.Context, statusCode int, err error, userMessage string) {
	requestID := middleware.GetRequestID(c)

	// 記錄真實錯誤到日誌
	logger.Error(c.Request.Context(), fmt.Sprintf("API Error: %v", err),
		logger.WithRequestID(requestID),
		logger.WithDetails(map[string]interface{}{
			"path":   c.FullPath(),
			"method": c.Request.Method,
			"status": statusCode,
		}))

	respond(c, statusCode, userMessage)
}

// InternalServerError 內部服務器錯誤
func InternalServerError(c *gin.Context, err error) {
	SafeError(c, http.StatusInternalServerError, err, InternalError)
}

// BadRequest 錯誤的請求
func BadRequest(c *gin.Context, message string) {
	respond(c, http.StatusBadRequest, message)
}

// Forbidden 禁止訪問
func Forbidden(c *gin.Context, message string) {
	respond(c, http.StatusForbidden, message)
}

// NotFoundError 資源不存在
func NotFoundError(c *gin.Context, message string) {
	if message == "" {
		message = RouteNotFound
	}
	respond(c, http.StatusNotFound, message)
}

func respond(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error":      message,
		"success":    false,
		"request_id": middleware.GetRequestID(c),
	})
}
