package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"infusesecret/internal/message"
	"infusesecret/internal/photo"
)

const defaultTimeout = 10 * time.Second

// APIError 非 2xx 回應.
type APIError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("api error %d: %s (request %s)", e.StatusCode, e.Message, e.RequestID)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// IsNotFound 判斷是否為 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Config 客戶端配置.
type Config struct {
	BaseURL    string // 含 /api 前綴，例如 http://localhost:3001/api.
	Timeout    time.Duration
	AdminToken string
}

// Client InfuseSecret API 客戶端.
type Client struct {
	baseURL    string
	adminToken string
	httpClient *http.Client
}

// New 創建客戶端.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		adminToken: cfg.AdminToken,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// HealthStatus 健康檢查回應.
type HealthStatus struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Database  struct {
		Status string `json:"status"`
		Driver string `json:"driver"`
	} `json:"database"`
}

// Health 查詢服務狀態.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var out HealthStatus
	if err := c.do(ctx, http.MethodGet, "/health", nil, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateMessage 建立訊息.
func (c *Client) CreateMessage(ctx context.Context, req *message.CreateMessageRequest) (*message.CreateResult, error) {
	var out message.CreateResult
	if err := c.do(ctx, http.MethodPost, "/messages", req, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetMessage 以 ID 讀取訊息.
func (c *Client) GetMessage(ctx context.Context, id string) (*message.View, error) {
	var out message.View
	if err := c.do(ctx, http.MethodGet, "/messages/"+url.PathEscape(id), nil, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetMessageByEditKey 以編輯金鑰讀取訊息.
func (c *Client) GetMessageByEditKey(ctx context.Context, editKey string) (*message.View, error) {
	var out message.View
	if err := c.do(ctx, http.MethodGet, "/messages/edit/"+url.PathEscape(editKey), nil, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateMessage 更新訊息.
func (c *Client) UpdateMessage(ctx context.Context, id string, req *message.UpdateMessageRequest) error {
	return c.do(ctx, http.MethodPut, "/messages/"+url.PathEscape(id), req, nil, false)
}

// DeleteMessage 刪除訊息.
func (c *Client) DeleteMessage(ctx context.Context, id, editKey string) error {
	return c.do(ctx, http.MethodDelete, "/messages/"+url.PathEscape(id),
		&message.DeleteMessageRequest{EditKey: editKey}, nil, false)
}

// IncrementScan 遞增掃描次數.
func (c *Client) IncrementScan(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPatch, "/messages/"+url.PathEscape(id)+"/scan", nil, nil, false)
}

// ListMessages 管理端列出最近訊息；limit <= 0 使用伺服器預設.
func (c *Client) ListMessages(ctx context.Context, limit int) ([]message.Summary, error) {
	path := "/admin/messages"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var out []message.Summary
	if err := c.do(ctx, http.MethodGet, path, nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

// PresignPhoto 取得照片上傳網址.
func (c *Client) PresignPhoto(ctx context.Context, contentType string) (*photo.Upload, error) {
	var out photo.Upload
	if err := c.do(ctx, http.MethodPost, "/photos/presign",
		&photo.PresignRequest{ContentType: contentType}, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}, admin bool) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if admin && c.adminToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.adminToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp, respBody)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response, body []byte) error {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		RequestID:  resp.Header.Get("X-Request-ID"),
	}

	var envelope struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil && envelope.Error != "" {
		apiErr.Message = envelope.Error
	} else {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
