package middleware

import (
	"fmt"
	"net/http"

	"infusesecret/internal/platform/logger"

	"github.com/gin-gonic/gin"
)

// Recovery 捕捉 panic，記錄後回傳通用 500 訊息.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Critical(c.Request.Context(), fmt.Sprintf("panic recovered: %v", recovered),
			logger.WithRequestID(GetRequestID(c)),
			logger.WithDetails(map[string]interface{}{
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			}))

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":      "Internal server error",
			"success":    false,
			"request_id": GetRequestID(c),
		})
	})
}
