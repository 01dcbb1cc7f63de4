package message

import (
	"time"
	"unicode/utf8"

	store "infusesecret/internal/storage/database/message"
)

// 主題常數；建立後不可變更.
const (
	ThemeRomantic   = "romantic"
	ThemeFriendship = "friendship"
	ThemeMotivation = "motivation"
	ThemeGeneral    = "general"
)

// Themes 所有支援的主題.
var Themes = []string{ThemeRomantic, ThemeFriendship, ThemeMotivation, ThemeGeneral}

// IsValidTheme 檢查主題是否有效.
func IsValidTheme(theme string) bool {
	for _, t := range Themes {
		if theme == t {
			return true
		}
	}
	return false
}

// CreateMessageRequest 創建訊息請求.
type CreateMessageRequest struct {
	Message  string `json:"message"`
	Theme    string `json:"theme"`
	PhotoURL string `json:"photo_url,omitempty"`
	Quote    string `json:"quote,omitempty"`
}

// UpdateMessageRequest 更新訊息請求.
type UpdateMessageRequest struct {
	Message  string `json:"message"`
	PhotoURL string `json:"photo_url,omitempty"`
	Quote    string `json:"quote,omitempty"`
	EditKey  string `json:"editKey"`
}

// DeleteMessageRequest 刪除訊息請求.
type DeleteMessageRequest struct {
	EditKey string `json:"editKey"`
}

// CreateResult 創建成功回應.
type CreateResult struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	EditKey string `json:"editKey"`
	ViewURL string `json:"viewUrl"`
	QRURL   string `json:"qrUrl"`
	Message string `json:"message"`
}

// View 對外訊息內容，不含編輯金鑰.
type View struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Theme     string    `json:"theme"`
	PhotoURL  *string   `json:"photo_url"`
	Quote     *string   `json:"quote"`
	ScanCount int64     `json:"scan_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary 管理列表項目.
type Summary struct {
	ID             string    `json:"id"`
	MessagePreview string    `json:"message_preview"`
	Theme          string    `json:"theme"`
	ScanCount      int64     `json:"scan_count"`
	CreatedAt      time.Time `json:"created_at"`
}

func toView(r *store.Record) *View {
	return &View{
		ID:        r.ID,
		Message:   r.Message,
		Theme:     r.Theme,
		PhotoURL:  r.PhotoURL,
		Quote:     r.Quote,
		ScanCount: r.ScanCount,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func toSummary(r *store.Record, previewLen int) Summary {
	return Summary{
		ID:             r.ID,
		MessagePreview: preview(r.Message, previewLen),
		Theme:          r.Theme,
		ScanCount:      r.ScanCount,
		CreatedAt:      r.CreatedAt,
	}
}

// preview 取前 n 個字元（rune），不截斷多位元組字元.
func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
