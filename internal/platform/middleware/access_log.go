package middleware

import (
	"fmt"
	"time"

	"infusesecret/internal/platform/logger"

	"github.com/gin-gonic/gin"
)

// AccessLog 每個請求輸出一筆 GCP httpRequest 格式日誌.
// 路徑以路由樣板記錄，避免將編輯金鑰寫入日誌.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		req := &logger.HTTPRequest{
			RequestMethod: c.Request.Method,
			RequestURL:    path,
			RequestSize:   c.Request.ContentLength,
			Status:        status,
			ResponseSize:  int64(c.Writer.Size()),
			UserAgent:     c.Request.UserAgent(),
			RemoteIP:      GetClientIP(c),
			Referer:       c.Request.Referer(),
			Latency:       fmt.Sprintf("%.3fs", time.Since(start).Seconds()),
			Protocol:      c.Request.Proto,
		}

		opts := []logger.LogOption{
			logger.WithHTTPRequest(req),
			logger.WithRequestID(GetRequestID(c)),
		}

		msg := fmt.Sprintf("%s %s %d", c.Request.Method, path, status)
		switch {
		case status >= 500:
			logger.Error(c.Request.Context(), msg, opts...)
		case status >= 400:
			logger.Warning(c.Request.Context(), msg, opts...)
		default:
			logger.Info(c.Request.Context(), msg, opts...)
		}
	}
}
