package photo

import (
	"net/http"

	"infusesecret/internal/httputil"

	"github.com/gin-gonic/gin"
)

// PresignRequest 預簽名請求.
type PresignRequest struct {
	ContentType string `json:"content_type"`
}

// Handler 照片上傳處理器；presigner 為 nil 表示未啟用.
type Handler struct {
	presigner *Presigner
}

// NewHandler 創建照片處理器.
func NewHandler(presigner *Presigner) *Handler {
	return &Handler{presigner: presigner}
}

// Presign 產生預簽名上傳網址.
func (h *Handler) Presign(c *gin.Context) {
	if h.presigner == nil {
		httputil.NotFoundError(c, httputil.PhotosNotConfigured)
		return
	}

	var req PresignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, httputil.InvalidRequestBody)
		return
	}

	upload, err := h.presigner.PresignUpload(c.Request.Context(), req.ContentType)
	if err != nil {
		httputil.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, upload)
}

// RegisterRoutes 註冊照片路由.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, guards ...gin.HandlerFunc) {
	handlers := append(append([]gin.HandlerFunc{}, guards...), h.Presign)
	rg.POST("/photos/presign", handlers...)
}
