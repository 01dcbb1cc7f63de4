package message

import (
	"context"
	"errors"
	"time"
)

// 儲存層錯誤.
var (
	// ErrNotFound 查無符合的記錄（id 不存在，或 id 與編輯金鑰不相符）.
	ErrNotFound = errors.New("message record not found")
	// ErrConflict id 或編輯金鑰雜湊違反唯一性約束，呼叫端應重新產生後重試.
	ErrConflict = errors.New("message identifier conflict")
)

// Repository 訊息倉儲接口.
//
// 所有操作皆為單筆記錄的原子操作。Update 與 Delete 以 (id, edit_key_hash)
// 作為單一條件執行，不符合時回傳 ErrNotFound。
type Repository interface {
	Create(ctx context.Context, record *Record) error
	GetByID(ctx context.Context, id string) (*Record, error)
	GetByEditKeyHash(ctx context.Context, editKeyHash string) (*Record, error)
	Update(ctx context.Context, id, editKeyHash string, fields UpdateFields) error
	Delete(ctx context.Context, id, editKeyHash string) error
	IncrementScan(ctx context.Context, id string) error
	ListRecent(ctx context.Context, limit int) ([]*Record, error)
	Ping(ctx context.Context) error
}

// Record 訊息數據模型.
type Record struct {
	ID          string    `bson:"id" json:"id"`
	EditKeyHash string    `bson:"edit_key_hash" json:"-"`
	Message     string    `bson:"message" json:"message"`
	Theme       string    `bson:"theme" json:"theme"`
	PhotoURL    *string   `bson:"photo_url" json:"photo_url"`
	Quote       *string   `bson:"quote" json:"quote"`
	ScanCount   int64     `bson:"scan_count" json:"scan_count"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}

// UpdateFields 可被更新的欄位；主題建立後不可變更.
type UpdateFields struct {
	Message  string
	PhotoURL *string
	Quote    *string
}

// Clone 回傳深拷貝，避免呼叫端修改共享記錄.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	if r.PhotoURL != nil {
		v := *r.PhotoURL
		c.PhotoURL = &v
	}
	if r.Quote != nil {
		v := *r.Quote
		c.Quote = &v
	}
	return &c
}
