package message

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"infusesecret/internal/constants"
	"infusesecret/internal/platform/config"
	"infusesecret/internal/platform/middleware"
	store "infusesecret/internal/storage/database/message"
)

// Limits 內容長度限制（字元數）.
type Limits struct {
	MaxMessageLength int
	MaxQuoteLength   int
	MaxPhotoURL      int
	PreviewLength    int
	MaxListSize      int
}

// DefaultLimits 預設限制.
func DefaultLimits() Limits {
	return Limits{
		MaxMessageLength: constants.DefaultMaxMessageLength,
		MaxQuoteLength:   constants.DefaultMaxQuoteLength,
		MaxPhotoURL:      constants.DefaultMaxPhotoURL,
		PreviewLength:    constants.DefaultPreviewLength,
		MaxListSize:      constants.DefaultMaxListSize,
	}
}

// LimitsFromConfig 由配置建立限制，未設定的欄位使用預設值.
func LimitsFromConfig(cfg config.LimitsConfig) Limits {
	l := DefaultLimits()
	if cfg.Message.MaxLength > 0 {
		l.MaxMessageLength = cfg.Message.MaxLength
	}
	if cfg.Message.MaxQuoteLength > 0 {
		l.MaxQuoteLength = cfg.Message.MaxQuoteLength
	}
	if cfg.Message.MaxPhotoURL > 0 {
		l.MaxPhotoURL = cfg.Message.MaxPhotoURL
	}
	if cfg.Message.PreviewLength > 0 {
		l.PreviewLength = cfg.Message.PreviewLength
	}
	if cfg.Admin.MaxListSize > 0 {
		l.MaxListSize = cfg.Admin.MaxListSize
	}
	return l
}

// normalizeText 驗證並清理訊息正文：拒絕 NUL，移除其他控制字元，去除首尾空白.
func (l Limits) normalizeText(text string) (string, error) {
	if strings.ContainsRune(text, 0) {
		return "", invalid("message", MsgInvalidCharacters)
	}

	text = strings.TrimSpace(middleware.SanitizeInput(text))
	if text == "" {
		return "", invalid("message", MsgMessageRequired)
	}
	if utf8.RuneCountInString(text) > l.MaxMessageLength {
		return "", invalid("message", fmt.Sprintf(msgMessageTooLongTmpl, l.MaxMessageLength))
	}
	return text, nil
}

// normalizePhotoURL 空字串視為未提供；否則必須是絕對 http(s) 網址.
func (l Limits) normalizePhotoURL(raw string) (*string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(raw) > l.MaxPhotoURL {
		return nil, invalid("photo_url", MsgPhotoURLTooLong)
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, invalid("photo_url", MsgInvalidPhotoURL)
	}
	return &raw, nil
}

// normalizeQuote 空字串視為未提供.
func (l Limits) normalizeQuote(raw string) (*string, error) {
	raw = strings.TrimSpace(middleware.SanitizeInput(raw))
	if raw == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(raw) > l.MaxQuoteLength {
		return nil, invalid("quote", MsgQuoteTooLong)
	}
	return &raw, nil
}

// ValidateCreateMessageRequest 驗證創建訊息請求，回傳待寫入的欄位.
func (l Limits) ValidateCreateMessageRequest(req *CreateMessageRequest) (*store.Record, error) {
	text, err := l.normalizeText(req.Message)
	if err != nil {
		return nil, err
	}
	if !IsValidTheme(req.Theme) {
		return nil, invalid("theme", MsgInvalidTheme)
	}

	photoURL, err := l.normalizePhotoURL(req.PhotoURL)
	if err != nil {
		return nil, err
	}
	quote, err := l.normalizeQuote(req.Quote)
	if err != nil {
		return nil, err
	}

	return &store.Record{
		Message:  text,
		Theme:    req.Theme,
		PhotoURL: photoURL,
		Quote:    quote,
	}, nil
}

// ValidateUpdateMessageRequest 驗證更新訊息請求.
func (l Limits) ValidateUpdateMessageRequest(req *UpdateMessageRequest) (store.UpdateFields, error) {
	text, err := l.normalizeText(req.Message)
	if err != nil {
		return store.UpdateFields{}, err
	}
	if strings.TrimSpace(req.EditKey) == "" {
		return store.UpdateFields{}, invalid("editKey", MsgEditKeyRequired)
	}

	photoURL, err := l.normalizePhotoURL(req.PhotoURL)
	if err != nil {
		return store.UpdateFields{}, err
	}
	quote, err := l.normalizeQuote(req.Quote)
	if err != nil {
		return store.UpdateFields{}, err
	}

	return store.UpdateFields{Message: text, PhotoURL: photoURL, Quote: quote}, nil
}
