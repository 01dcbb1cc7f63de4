package database

import (
	"context"
	"database/sql"
	"fmt"

	"infusesecret/internal/platform/config"
	"infusesecret/internal/platform/logger"
	"infusesecret/internal/storage/database/message"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Repositories 倉儲集合.
type Repositories struct {
	Message message.Repository
}

// Connections 已建立的資料庫連線；依驅動只會有其中之一.
type Connections struct {
	Mongo    *mongo.Database
	Postgres *sql.DB
}

// NewRepositories 依配置的驅動創建倉儲集合.
func NewRepositories(ctx context.Context, cfg *config.Config, conns Connections) (*Repositories, error) {
	switch cfg.Database.Driver {
	case config.DriverMongo:
		if conns.Mongo == nil {
			return nil, fmt.Errorf("MongoDB 尚未連接")
		}
		store := message.NewMongoStore(conns.Mongo)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		// 索引建立失敗只記錄，不中斷服務啟動
		if err := store.CreateIndexes(ctx); err != nil {
			logger.Warningf(ctx, "建立訊息索引失敗: %v", err)
		}
		return &Repositories{Message: store}, nil

	case config.DriverPostgres:
		if conns.Postgres == nil {
			return nil, fmt.Errorf("PostgreSQL 尚未連接")
		}
		return &Repositories{Message: message.NewPostgresStore(conns.Postgres)}, nil

	case config.DriverMemory:
		logger.Warning(ctx, "使用記憶體存儲，重啟後資料將遺失")
		return &Repositories{Message: message.NewMemoryStore()}, nil

	default:
		return nil, fmt.Errorf("不支援的資料庫驅動: %q", cfg.Database.Driver)
	}
}
