package message

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore 行程內訊息存儲，供開發環境與測試使用.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]*Record
	byHash  map[string]string
	nowFunc func() time.Time
}

// NewMemoryStore 創建新的記憶體訊息存儲.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]*Record),
		byHash:  make(map[string]string),
		nowFunc: func() time.Time { return time.Now().UTC() },
	}
}

// Create 創建訊息.
func (s *MemoryStore) Create(_ context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[record.ID]; exists {
		return ErrConflict
	}
	if _, exists := s.byHash[record.EditKeyHash]; exists {
		return ErrConflict
	}

	now := s.nowFunc()
	record.CreatedAt = now
	record.UpdatedAt = now

	s.byID[record.ID] = record.Clone()
	s.byHash[record.EditKeyHash] = record.ID
	return nil
}

// GetByID 根據公開 ID 獲取訊息.
func (s *MemoryStore) GetByID(_ context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return record.Clone(), nil
}

// GetByEditKeyHash 根據編輯金鑰雜湊獲取訊息.
func (s *MemoryStore) GetByEditKeyHash(_ context.Context, editKeyHash string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byHash[editKeyHash]
	if !ok {
		return nil, ErrNotFound
	}
	return s.byID[id].Clone(), nil
}

// Update 在 id 與編輯金鑰雜湊同時相符時覆寫內容.
func (s *MemoryStore) Update(_ context.Context, id, editKeyHash string, fields UpdateFields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.byID[id]
	if !ok || record.EditKeyHash != editKeyHash {
		return ErrNotFound
	}

	record.Message = fields.Message
	record.PhotoURL = copyString(fields.PhotoURL)
	record.Quote = copyString(fields.Quote)
	record.UpdatedAt = s.advance(record.UpdatedAt)
	return nil
}

// Delete 在 id 與編輯金鑰雜湊同時相符時刪除訊息.
func (s *MemoryStore) Delete(_ context.Context, id, editKeyHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.byID[id]
	if !ok || record.EditKeyHash != editKeyHash {
		return ErrNotFound
	}

	delete(s.byID, id)
	delete(s.byHash, editKeyHash)
	return nil
}

// IncrementScan 遞增掃描次數.
func (s *MemoryStore) IncrementScan(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	record.ScanCount++
	record.UpdatedAt = s.advance(record.UpdatedAt)
	return nil
}

// ListRecent 依建立時間倒序列出訊息.
func (s *MemoryStore) ListRecent(_ context.Context, limit int) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*Record, 0, len(s.byID))
	for _, record := range s.byID {
		records = append(records, record.Clone())
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID < records[j].ID
		}
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	if limit >= 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Ping 記憶體存儲永遠可用.
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// advance 確保 updated_at 嚴格遞增，即使時鐘解析度不足.
func (s *MemoryStore) advance(prev time.Time) time.Time {
	now := s.nowFunc()
	if !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}
	return now
}

func copyString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
