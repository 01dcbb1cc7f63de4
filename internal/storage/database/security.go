package database

import (
	"fmt"
	"regexp"
)

var hexPattern = regexp.MustCompile("^[a-f0-9]+$")

// ValidateHexID 驗證識別碼為指定長度的小寫十六進制字串.
// 不符合格式的輸入在進入儲存層前即被拒絕，避免查詢注入.
func ValidateHexID(id string, length int) error {
	if len(id) != length {
		return fmt.Errorf("無效的識別碼長度")
	}
	if !hexPattern.MatchString(id) {
		return fmt.Errorf("無效的識別碼格式")
	}
	return nil
}

// ClampLimit 驗證並限制查詢數量.
func ClampLimit(limit, defaultLimit, maxLimit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
