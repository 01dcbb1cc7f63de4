package audit

import (
	"context"
	"time"

	"infusesecret/internal/platform/logger"
	"infusesecret/internal/platform/middleware"
)

// 審計事件類型.
const (
	EventMessageCreated  = "message_created"
	EventMessageUpdated  = "message_updated"
	EventMessageDeleted  = "message_deleted"
	EventEditKeyRejected = "edit_key_rejected"
)

// 審計結果.
const (
	ResultSuccess = "success"
	ResultDenied  = "denied"
)

// AuditService 審計服務
type AuditService struct {
	enabled bool
}

// NewAuditService 創建審計服務
func NewAuditService(enabled bool) *AuditService {
	return &AuditService{enabled: enabled}
}

// AuditEvent 審計事件；不包含編輯金鑰.
type AuditEvent struct {
	Timestamp time.Time              `json:"timestamp"`
	EventType string                 `json:"event_type"`
	MessageID string                 `json:"message_id,omitempty"`
	Action    string                 `json:"action"`
	Result    string                 `json:"result"`
	Details   map[string]interface{} `json:"details,omitempty"`
	IPAddress string                 `json:"ip_address,omitempty"`
	UserAgent string                 `json:"user_agent,omitempty"`
}

// LogMessageCreated 記錄訊息建立
func (a *AuditService) LogMessageCreated(ctx context.Context, messageID, theme string) {
	a.record(ctx, AuditEvent{
		EventType: EventMessageCreated,
		MessageID: messageID,
		Action:    "create_message",
		Result:    ResultSuccess,
		Details:   map[string]interface{}{"theme": theme},
	})
}

// LogMessageUpdated 記錄訊息更新
func (a *AuditService) LogMessageUpdated(ctx context.Context, messageID string) {
	a.record(ctx, AuditEvent{
		EventType: EventMessageUpdated,
		MessageID: messageID,
		Action:    "update_message",
		Result:    ResultSuccess,
	})
}

// LogMessageDeleted 記錄訊息刪除
func (a *AuditService) LogMessageDeleted(ctx context.Context, messageID string) {
	a.record(ctx, AuditEvent{
		EventType: EventMessageDeleted,
		MessageID: messageID,
		Action:    "delete_message",
		Result:    ResultSuccess,
	})
}

// LogEditKeyRejected 記錄編輯金鑰不符的更新或刪除嘗試
func (a *AuditService) LogEditKeyRejected(ctx context.Context, messageID, action string) {
	a.record(ctx, AuditEvent{
		EventType: EventEditKeyRejected,
		MessageID: messageID,
		Action:    action,
		Result:    ResultDenied,
	})
}

// IsEnabled 檢查審計是否啟用
func (a *AuditService) IsEnabled() bool {
	return a != nil && a.enabled
}

func (a *AuditService) record(ctx context.Context, event AuditEvent) {
	if !a.IsEnabled() {
		return
	}

	event.Timestamp = time.Now().UTC()
	meta := middleware.GetRequestMetadata(ctx)
	event.IPAddress = meta.IPAddress
	event.UserAgent = meta.UserAgent

	severity := logger.SeverityNotice
	if event.Result == ResultDenied {
		severity = logger.SeverityWarning
	}

	details := map[string]interface{}{
		"event_type": event.EventType,
		"result":     event.Result,
		"ip_address": event.IPAddress,
		"user_agent": event.UserAgent,
		"timestamp":  event.Timestamp.Format(time.RFC3339Nano),
	}
	for k, v := range event.Details {
		details[k] = v
	}

	logger.Log(ctx, severity, "[AUDIT] "+event.EventType,
		logger.WithMessageID(event.MessageID),
		logger.WithAction(event.Action),
		logger.WithDetails(details),
		logger.WithLabels(map[string]string{"log_type": "audit"}))
}
