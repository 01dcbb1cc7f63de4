package httputil

import "github.com/gin-gonic/gin"

// 成功訊息常數.
const (
	MessageCreated = "Message created successfully"
	MessageUpdated = "Message updated successfully"
	MessageDeleted = "Message deleted successfully"
)

// 錯誤訊息常數.
const (
	RouteNotFound       = "Route not found"
	InternalError       = "Internal server error"
	InvalidRequestBody  = "Invalid request body"
	PhotosNotConfigured = "Photo uploads are not enabled"
)

// Success 回傳帶訊息的成功回應.
func Success(message string) gin.H {
	return gin.H{
		"success": true,
		"message": message,
	}
}

// OK 回傳僅含 success 的回應.
func OK() gin.H {
	return gin.H{"success": true}
}
