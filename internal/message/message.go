package message

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"infusesecret/internal/httputil"

	"github.com/gin-gonic/gin"
)

// MessageHandler message 處理器.
type MessageHandler struct {
	svc *Service
}

// NewMessageHandler 創建新的 message 處理器.
func NewMessageHandler(svc *Service) *MessageHandler {
	return &MessageHandler{svc: svc}
}

// CreateMessage 創建訊息.
func (h *MessageHandler) CreateMessage(c *gin.Context) {
	var req CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, httputil.InvalidRequestBody)
		return
	}

	result, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		httputil.WriteError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// GetMessage 以 ID 獲取訊息.
func (h *MessageHandler) GetMessage(c *gin.Context) {
	view, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// GetMessageByEditKey 以編輯金鑰獲取訊息.
func (h *MessageHandler) GetMessageByEditKey(c *gin.Context) {
	view, err := h.svc.GetByEditKey(c.Request.Context(), c.Param("editKey"))
	if err != nil {
		httputil.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// UpdateMessage 更新訊息.
func (h *MessageHandler) UpdateMessage(c *gin.Context) {
	var req UpdateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, httputil.InvalidRequestBody)
		return
	}

	if err := h.svc.Update(c.Request.Context(), c.Param("id"), &req); err != nil {
		httputil.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, httputil.Success(httputil.MessageUpdated))
}

// IncrementScan 遞增掃描次數.
func (h *MessageHandler) IncrementScan(c *gin.Context) {
	if err := h.svc.IncrementScan(c.Request.Context(), c.Param("id")); err != nil {
		httputil.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, httputil.OK())
}

// DeleteMessage 刪除訊息；請求體可省略，此時視為缺少編輯金鑰.
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	var req DeleteMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.BadRequest(c, httputil.InvalidRequestBody)
		return
	}

	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), req.EditKey); err != nil {
		httputil.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, httputil.Success(httputil.MessageDeleted))
}

// ListMessages 管理端列出最近訊息.
func (h *MessageHandler) ListMessages(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	summaries, err := h.svc.ListRecent(c.Request.Context(), limit)
	if err != nil {
		httputil.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, summaries)
}

// RegisterRoutes 註冊訊息路由；createGuard 只套用在建立端點.
func (h *MessageHandler) RegisterRoutes(rg *gin.RouterGroup, createGuard ...gin.HandlerFunc) {
	create := append(append([]gin.HandlerFunc{}, createGuard...), h.CreateMessage)

	rg.POST("/messages", create...)
	rg.GET("/messages/edit/:editKey", h.GetMessageByEditKey)
	rg.GET("/messages/:id", h.GetMessage)
	rg.PUT("/messages/:id", h.UpdateMessage)
	rg.PATCH("/messages/:id/scan", h.IncrementScan)
	rg.DELETE("/messages/:id", h.DeleteMessage)
}
