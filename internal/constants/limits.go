package constants

import "time"

// HTTP 請求相關常數
const (
	// 默認值（可被配置覆蓋）
	DefaultMaxRequestBodySize = 1 << 20 // 1MB
	DefaultRequestTimeout     = 30      // 秒
	DefaultShutdownGrace      = 30      // 秒
)

// 訊息相關常數
const (
	DefaultMaxMessageLength = 10000
	DefaultMaxQuoteLength   = 255
	DefaultMaxPhotoURL      = 500
	DefaultPreviewLength    = 50
	DefaultMaxListSize      = 100

	// 儲存層欄位上限（SQL VARCHAR 與 Mongo $jsonSchema）
	StoredMaxQuoteLength = 255
	StoredMaxPhotoURL    = 500
)

// Rate Limiting 默認值
const (
	DefaultRateLimitPerMinute = 100
	DefaultCreateRateLimit    = 30
	RateLimitWindow           = time.Minute
)

// 揭曉流程常數（固定，不可配置）
const (
	RevealClickThreshold = 3
	RevealParticleCount  = 20
	RevealCelebration    = 4 * time.Second
	ScanRecordTimeout    = 5 * time.Second
)

// QR 圖片預設值
const (
	DefaultQREndpoint = "https://api.qrserver.com/v1/create-qr-code/"
	DefaultQRSize     = 300
)
