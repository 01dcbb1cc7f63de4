package middleware

import "github.com/gin-gonic/gin"

// SecurityHeaders 添加安全標頭
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 防止點擊劫持
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-XSS-Protection", "1; mode=block")
		// API 只回傳 JSON
		c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		// 編輯金鑰會出現在網址中，避免被快取
		c.Header("Cache-Control", "no-store")

		c.Next()
	}
}
