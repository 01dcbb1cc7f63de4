package message

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// 識別碼位元組長度；十六進制後長度加倍.
const (
	idBytes      = 8
	editKeyBytes = 16

	IDLength      = idBytes * 2
	EditKeyLength = editKeyBytes * 2
)

// NewID 產生公開訊息 ID.
func NewID() (string, error) {
	return randomHex(idBytes)
}

// NewEditKey 產生編輯金鑰.
func NewEditKey() (string, error) {
	return randomHex(editKeyBytes)
}

// HashEditKey 回傳編輯金鑰的 BLAKE2b-256 十六進制摘要；儲存層只保存摘要.
func HashEditKey(editKey string) string {
	sum := blake2b.Sum256([]byte(editKey))
	return hex.EncodeToString(sum[:])
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
