package message

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// newMongoStore 需要 MONGO_TEST_URL 指向可用的 MongoDB，否則略過.
func newMongoStore(t *testing.T) *MongoStore {
	t.Helper()
	url := os.Getenv("MONGO_TEST_URL")
	if url == "" {
		t.Skip("MONGO_TEST_URL not set")
	}

	client, err := mongo.Connect(options.Client().ApplyURI(url))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, client.Ping(ctx, nil))

	db := client.Database("infusesecret_test_" + uuid.NewString()[:8])
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	store := NewMongoStore(db)
	require.NoError(t, store.EnsureSchema(ctx))
	require.NoError(t, store.EnsureSchema(ctx))
	require.NoError(t, store.CreateIndexes(ctx))
	return store
}

func TestMongoStoreLifecycle(t *testing.T) {
	store := newMongoStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newRecord("id1", "hash1")))
	assert.ErrorIs(t, store.Create(ctx, newRecord("id1", "hash2")), ErrConflict)

	got, err := store.GetByEditKeyHash(ctx, "hash1")
	require.NoError(t, err)
	assert.Equal(t, "id1", got.ID)

	assert.ErrorIs(t, store.Update(ctx, "id1", "bad", UpdateFields{Message: "x"}), ErrNotFound)
	require.NoError(t, store.Update(ctx, "id1", "hash1", UpdateFields{Message: "edited"}))

	require.NoError(t, store.IncrementScan(ctx, "id1"))
	assert.ErrorIs(t, store.IncrementScan(ctx, "missing"), ErrNotFound)

	got, err = store.GetByID(ctx, "id1")
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Message)
	assert.Equal(t, int64(1), got.ScanCount)

	list, err := store.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, store.Delete(ctx, "id1", "hash1"))
	_, err = store.GetByID(ctx, "id1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMongoStoreRejectsUnknownTheme(t *testing.T) {
	store := newMongoStore(t)

	rec := newRecord("id1", "hash1")
	rec.Theme = "spooky"
	err := store.Create(context.Background(), rec)
	assert.Error(t, err)
}
