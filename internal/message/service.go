package message

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"infusesecret/internal/constants"
	"infusesecret/internal/httputil"
	"infusesecret/internal/platform/logger"
	"infusesecret/internal/platform/metrics"
	"infusesecret/internal/security/audit"
	"infusesecret/internal/storage/database"
	store "infusesecret/internal/storage/database/message"
)

// Options 服務選項.
type Options struct {
	FrontendURL string
	QREndpoint  string
	QRSize      int
	Limits      Limits
	Audit       *audit.AuditService
}

// Service 訊息服務：驗證、識別碼產生、編輯金鑰授權.
type Service struct {
	repo   store.Repository
	opts   Options
	audit  *audit.AuditService
	limits Limits

	newID      func() (string, error)
	newEditKey func() (string, error)
}

// NewService 創建訊息服務.
func NewService(repo store.Repository, opts Options) *Service {
	if opts.QREndpoint == "" {
		opts.QREndpoint = constants.DefaultQREndpoint
	}
	if opts.QRSize <= 0 {
		opts.QRSize = constants.DefaultQRSize
	}
	if opts.Limits == (Limits{}) {
		opts.Limits = DefaultLimits()
	}
	opts.FrontendURL = strings.TrimRight(opts.FrontendURL, "/")

	return &Service{
		repo:       repo,
		opts:       opts,
		audit:      opts.Audit,
		limits:     opts.Limits,
		newID:      NewID,
		newEditKey: NewEditKey,
	}
}

// Create 建立訊息；識別碼衝突時重新產生並重試一次.
func (s *Service) Create(ctx context.Context, req *CreateMessageRequest) (*CreateResult, error) {
	base, err := s.limits.ValidateCreateMessageRequest(req)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= 2; attempt++ {
		id, err := s.newID()
		if err != nil {
			return nil, internal("generate id", err)
		}
		editKey, err := s.newEditKey()
		if err != nil {
			return nil, internal("generate edit key", err)
		}

		record := base.Clone()
		record.ID = id
		record.EditKeyHash = HashEditKey(editKey)

		err = s.repo.Create(ctx, record)
		if err == nil {
			metrics.RecordMessageEvent(metrics.EventCreated)
			s.audit.LogMessageCreated(ctx, id, record.Theme)

			viewURL := s.ViewURL(id)
			return &CreateResult{
				Success: true,
				ID:      id,
				EditKey: editKey,
				ViewURL: viewURL,
				QRURL:   s.QRURL(viewURL),
				Message: httputil.MessageCreated,
			}, nil
		}

		if !errors.Is(err, store.ErrConflict) {
			return nil, internal("create message", err)
		}

		metrics.RecordMessageEvent(metrics.EventCreateConflict)
		logger.Warning(ctx, "訊息識別碼衝突，重新產生",
			logger.WithAction("create_message"),
			logger.WithDetails(map[string]interface{}{"attempt": attempt}))
	}

	return nil, internal("create message", errors.New("identifier conflict persisted after retry"))
}

// GetByID 以公開 ID 讀取訊息.
func (s *Service) GetByID(ctx context.Context, id string) (*View, error) {
	if database.ValidateHexID(id, IDLength) != nil {
		return nil, &NotFoundError{Message: MsgMessageNotFound}
	}

	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NotFoundError{Message: MsgMessageNotFound}
		}
		return nil, internal("get message", err)
	}
	return toView(record), nil
}

// GetByEditKey 以編輯金鑰讀取訊息，供編輯頁面使用.
func (s *Service) GetByEditKey(ctx context.Context, editKey string) (*View, error) {
	if database.ValidateHexID(editKey, EditKeyLength) != nil {
		return nil, &NotFoundError{Message: MsgInvalidEditKey}
	}

	record, err := s.repo.GetByEditKeyHash(ctx, HashEditKey(editKey))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NotFoundError{Message: MsgInvalidEditKey}
		}
		return nil, internal("get message by edit key", err)
	}
	return toView(record), nil
}

// Update 以 (id, editKey) 授權覆寫正文、照片與引言；主題不可變更.
func (s *Service) Update(ctx context.Context, id string, req *UpdateMessageRequest) error {
	fields, err := s.limits.ValidateUpdateMessageRequest(req)
	if err != nil {
		return err
	}

	if !wellFormed(id, req.EditKey) {
		return s.reject(ctx, id, "update_message", MsgUpdateUnauthorized)
	}

	err = s.repo.Update(ctx, id, HashEditKey(req.EditKey), fields)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return s.reject(ctx, id, "update_message", MsgUpdateUnauthorized)
		}
		return internal("update message", err)
	}

	metrics.RecordMessageEvent(metrics.EventUpdated)
	s.audit.LogMessageUpdated(ctx, id)
	return nil
}

// Delete 以 (id, editKey) 授權永久刪除訊息.
func (s *Service) Delete(ctx context.Context, id, editKey string) error {
	if strings.TrimSpace(editKey) == "" {
		return invalid("editKey", MsgEditKeyRequired)
	}

	if !wellFormed(id, editKey) {
		return s.reject(ctx, id, "delete_message", MsgInvalidEditKey)
	}

	err := s.repo.Delete(ctx, id, HashEditKey(editKey))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return s.reject(ctx, id, "delete_message", MsgInvalidEditKey)
		}
		return internal("delete message", err)
	}

	metrics.RecordMessageEvent(metrics.EventDeleted)
	s.audit.LogMessageDeleted(ctx, id)
	return nil
}

// IncrementScan 遞增掃描次數；不需授權，未知 ID 靜默略過.
func (s *Service) IncrementScan(ctx context.Context, id string) error {
	if database.ValidateHexID(id, IDLength) != nil {
		return nil
	}

	if err := s.repo.IncrementScan(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			logger.Debug(ctx, "掃描計數目標不存在", logger.WithMessageID(id))
			return nil
		}
		return internal("increment scan", err)
	}

	metrics.RecordMessageEvent(metrics.EventScanned)
	return nil
}

// ListRecent 依建立時間倒序列出訊息摘要；limit 限制在 1..MaxListSize.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]Summary, error) {
	limit = database.ClampLimit(limit, s.limits.MaxListSize, s.limits.MaxListSize)

	records, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, internal("list messages", err)
	}

	summaries := make([]Summary, 0, len(records))
	for _, r := range records {
		summaries = append(summaries, toSummary(r, s.limits.PreviewLength))
	}
	return summaries, nil
}

// Ping 檢查儲存層.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// ViewURL 分享連結.
func (s *Service) ViewURL(id string) string {
	return fmt.Sprintf("%s/#/view/%s", s.opts.FrontendURL, id)
}

// QRURL 分享連結的 QR 圖片網址.
func (s *Service) QRURL(viewURL string) string {
	sep := "?"
	if strings.Contains(s.opts.QREndpoint, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%ssize=%dx%d&data=%s",
		s.opts.QREndpoint, sep, s.opts.QRSize, s.opts.QRSize, url.QueryEscape(viewURL))
}

func (s *Service) reject(ctx context.Context, id, action, message string) error {
	metrics.RecordMessageEvent(metrics.EventEditKeyRejected)
	s.audit.LogEditKeyRejected(ctx, id, action)
	return &AuthorizationError{Message: message}
}

func wellFormed(id, editKey string) bool {
	return database.ValidateHexID(id, IDLength) == nil &&
		database.ValidateHexID(editKey, EditKeyLength) == nil
}
