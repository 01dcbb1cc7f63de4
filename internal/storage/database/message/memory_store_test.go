package message

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecord(id, hash string) *Record {
	return &Record{ID: id, EditKeyHash: hash, Message: "hi " + id, Theme: "general"}
}

func TestMemoryStoreCreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	rec := newRecord("id1", "hash1")
	rec.Quote = strPtr("quote")
	require.NoError(t, store.Create(ctx, rec))

	got, err := store.GetByID(ctx, "id1")
	require.NoError(t, err)
	assert.Equal(t, "hi id1", got.Message)
	assert.Equal(t, int64(0), got.ScanCount)
	assert.False(t, got.CreatedAt.IsZero())

	byKey, err := store.GetByEditKeyHash(ctx, "hash1")
	require.NoError(t, err)
	assert.Equal(t, "id1", byKey.ID)

	// 回傳值為拷貝
	*got.Quote = "changed"
	again, _ := store.GetByID(ctx, "id1")
	assert.Equal(t, "quote", *again.Quote)
}

func TestMemoryStoreCreateConflict(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Create(ctx, newRecord("id1", "hash1")))
	assert.ErrorIs(t, store.Create(ctx, newRecord("id1", "hash2")), ErrConflict)
	assert.ErrorIs(t, store.Create(ctx, newRecord("id2", "hash1")), ErrConflict)
}

func TestMemoryStoreNotFound(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.GetByEditKeyHash(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.IncrementScan(ctx, "nope"), ErrNotFound)
}

func TestMemoryStoreUpdateRequiresMatchingKey(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Create(ctx, newRecord("id1", "hash1")))
	before, _ := store.GetByID(ctx, "id1")

	err := store.Update(ctx, "id1", "other", UpdateFields{Message: "x"})
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.Update(ctx, "id1", "hash1", UpdateFields{Message: "updated", PhotoURL: strPtr("https://a/b.png")})
	require.NoError(t, err)

	after, err := store.GetByID(ctx, "id1")
	require.NoError(t, err)
	assert.Equal(t, "updated", after.Message)
	assert.Equal(t, "general", after.Theme)
	assert.Equal(t, "https://a/b.png", *after.PhotoURL)
	assert.Nil(t, after.Quote)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))
	assert.Equal(t, before.CreatedAt, after.CreatedAt)
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Create(ctx, newRecord("id1", "hash1")))

	assert.ErrorIs(t, store.Delete(ctx, "id1", "wrong"), ErrNotFound)
	require.NoError(t, store.Delete(ctx, "id1", "hash1"))
	assert.ErrorIs(t, store.Delete(ctx, "id1", "hash1"), ErrNotFound)

	_, err := store.GetByEditKeyHash(ctx, "hash1")
	assert.ErrorIs(t, err, ErrNotFound)

	// 刪除後相同識別碼可再次使用
	assert.NoError(t, store.Create(ctx, newRecord("id1", "hash1")))
}

func TestMemoryStoreConcurrentIncrement(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Create(ctx, newRecord("id1", "hash1")))

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_ = store.IncrementScan(ctx, "id1")
		}()
	}
	wg.Wait()

	got, err := store.GetByID(ctx, "id1")
	require.NoError(t, err)
	assert.Equal(t, int64(workers), got.ScanCount)
}

func TestMemoryStoreListRecent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	store.nowFunc = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Create(ctx, newRecord(id, "h"+id)))
	}

	all, err := store.ListRecent(ctx, 100)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{all[0].ID, all[1].ID, all[2].ID})

	limited, err := store.ListRecent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	none, err := store.ListRecent(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}
