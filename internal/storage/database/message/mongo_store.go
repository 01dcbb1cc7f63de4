package message

import (
	"context"
	"errors"
	"fmt"
	"time"

	"infusesecret/internal/constants"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// CollectionName 訊息集合名稱.
const CollectionName = "messages"

// MongoStore MongoDB 訊息存儲實作.
type MongoStore struct {
	collection *mongo.Collection
}

// NewMongoStore 創建新的 MongoDB 訊息存儲.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		collection: db.Collection(CollectionName),
	}
}

// namespaceExistsCode MongoDB 集合已存在的錯誤碼.
const namespaceExistsCode = 48

// EnsureSchema 以 $jsonSchema 驗證器建立集合；集合已存在時略過.
func (s *MongoStore) EnsureSchema(ctx context.Context) error {
	validator := bson.M{"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": bson.A{"id", "edit_key_hash", "message", "theme", "scan_count", "created_at", "updated_at"},
		"properties": bson.M{
			"id":            bson.M{"bsonType": "string"},
			"edit_key_hash": bson.M{"bsonType": "string"},
			"message":       bson.M{"bsonType": "string", "minLength": 1},
			"theme":         bson.M{"enum": bson.A{"romantic", "friendship", "motivation", "general"}},
			"photo_url":     bson.M{"bsonType": bson.A{"string", "null"}, "maxLength": constants.StoredMaxPhotoURL},
			"quote":         bson.M{"bsonType": bson.A{"string", "null"}, "maxLength": constants.StoredMaxQuoteLength},
			"scan_count":    bson.M{"bsonType": bson.A{"long", "int"}, "minimum": 0},
			"created_at":    bson.M{"bsonType": "date"},
			"updated_at":    bson.M{"bsonType": "date"},
		},
	}}

	db := s.collection.Database()
	err := db.CreateCollection(ctx, CollectionName, options.CreateCollection().SetValidator(validator))
	if err != nil {
		var cmdErr mongo.CommandError
		if errors.As(err, &cmdErr) && cmdErr.Code == namespaceExistsCode {
			return nil
		}
		return fmt.Errorf("create message collection: %w", err)
	}
	return nil
}

// CreateIndexes 建立唯一索引與列表排序索引.
func (s *MongoStore) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetName("id_unique_idx").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "edit_key_hash", Value: 1}},
			Options: options.Index().SetName("edit_key_hash_unique_idx").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("created_at_idx"),
		},
	}

	if _, err := s.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("create message indexes: %w", err)
	}
	return nil
}

// Create 創建訊息；唯一索引衝突時回傳 ErrConflict.
func (s *MongoStore) Create(ctx context.Context, record *Record) error {
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now

	if _, err := s.collection.InsertOne(ctx, record); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// GetByID 根據公開 ID 獲取訊息.
func (s *MongoStore) GetByID(ctx context.Context, id string) (*Record, error) {
	return s.findOne(ctx, bson.M{"id": id})
}

// GetByEditKeyHash 根據編輯金鑰雜湊獲取訊息.
func (s *MongoStore) GetByEditKeyHash(ctx context.Context, editKeyHash string) (*Record, error) {
	return s.findOne(ctx, bson.M{"edit_key_hash": editKeyHash})
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (*Record, error) {
	var record Record
	err := s.collection.FindOne(ctx, filter).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find message: %w", err)
	}
	return &record, nil
}

// Update 在 id 與編輯金鑰雜湊同時相符時覆寫內容.
func (s *MongoStore) Update(ctx context.Context, id, editKeyHash string, fields UpdateFields) error {
	update := bson.M{"$set": bson.M{
		"message":    fields.Message,
		"photo_url":  fields.PhotoURL,
		"quote":      fields.Quote,
		"updated_at": time.Now().UTC(),
	}}

	res, err := s.collection.UpdateOne(ctx, bson.M{"id": id, "edit_key_hash": editKeyHash}, update)
	if err != nil {
		return fmt.Errorf("update message: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete 在 id 與編輯金鑰雜湊同時相符時刪除訊息.
func (s *MongoStore) Delete(ctx context.Context, id, editKeyHash string) error {
	res, err := s.collection.DeleteOne(ctx, bson.M{"id": id, "edit_key_hash": editKeyHash})
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementScan 以 $inc 原子遞增掃描次數；id 不存在時回傳 ErrNotFound.
func (s *MongoStore) IncrementScan(ctx context.Context, id string) error {
	update := bson.M{
		"$inc": bson.M{"scan_count": 1},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}

	res, err := s.collection.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("increment scan count: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListRecent 依建立時間倒序列出訊息.
func (s *MongoStore) ListRecent(ctx context.Context, limit int) ([]*Record, error) {
	opts := options.Find().
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer cursor.Close(ctx)

	records := make([]*Record, 0, limit)
	for cursor.Next(ctx) {
		var record Record
		if err := cursor.Decode(&record); err != nil {
			return nil, fmt.Errorf("decode message: %w", err)
		}
		records = append(records, &record)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return records, nil
}

// Ping 檢查 MongoDB 連線.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.collection.Database().Client().Ping(ctx, nil)
}
