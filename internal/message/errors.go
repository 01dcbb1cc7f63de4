package message

import (
	"errors"
	"fmt"
	"net/http"
)

// 服務層錯誤分類，可用 errors.Is 判斷.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("edit key mismatch")
	ErrNotFound     = errors.New("message not found")
	ErrInternal     = errors.New("internal error")
)

// 對外錯誤訊息.
const (
	MsgMessageRequired    = "Message is required"
	MsgInvalidTheme       = "Invalid theme"
	MsgEditKeyRequired    = "Edit key is required"
	MsgMessageNotFound    = "Message not found"
	MsgInvalidEditKey     = "Invalid edit key"
	MsgUpdateUnauthorized = "Invalid edit key or message not found"
	MsgInvalidCharacters  = "Message contains invalid characters"
	MsgInvalidPhotoURL    = "Invalid photo URL"
	MsgPhotoURLTooLong    = "Photo URL is too long"
	MsgQuoteTooLong       = "Quote is too long"
	msgMessageTooLongTmpl = "Message is too long (max %d characters)"
)

// ValidationError 輸入驗證失敗 (400).
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string         { return e.Message }
func (e *ValidationError) Unwrap() error         { return ErrValidation }
func (e *ValidationError) HTTPStatus() int       { return http.StatusBadRequest }
func (e *ValidationError) PublicMessage() string { return e.Message }

// AuthorizationError 編輯金鑰與訊息不相符 (403).
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string         { return e.Message }
func (e *AuthorizationError) Unwrap() error         { return ErrUnauthorized }
func (e *AuthorizationError) HTTPStatus() int       { return http.StatusForbidden }
func (e *AuthorizationError) PublicMessage() string { return e.Message }

// NotFoundError 查無訊息 (404).
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string         { return e.Message }
func (e *NotFoundError) Unwrap() error         { return ErrNotFound }
func (e *NotFoundError) HTTPStatus() int       { return http.StatusNotFound }
func (e *NotFoundError) PublicMessage() string { return e.Message }

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func internal(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrInternal, op, err)
}
