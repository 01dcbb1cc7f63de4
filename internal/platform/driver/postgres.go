package driver

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"infusesecret/internal/platform/config"
	"infusesecret/internal/platform/logger"
	"infusesecret/internal/storage/database/migrations"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

var postgresDB *sql.DB

// gooseUp 執行遷移，測試時可替換.
var gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
	return goose.UpContext(ctx, db, dir)
}

// InitPostgres 初始化 PostgreSQL 連接池，並視配置執行結構遷移.
func InitPostgres(cfg config.PostgresConfig) error {
	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return fmt.Errorf("failed to open PostgreSQL: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ConnectTimeout)*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	if cfg.RunMigrations {
		if err := RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return err
		}
	}

	postgresDB = db
	logger.LogInfof("PostgreSQL connected successfully")
	return nil
}

// RunMigrations 以內嵌遷移檔更新資料庫結構.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := gooseUp(ctx, db, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// GetPostgresDB 獲取 PostgreSQL 連接池.
func GetPostgresDB() *sql.DB {
	return postgresDB
}

// ClosePostgres 關閉 PostgreSQL 連接池.
func ClosePostgres() error {
	if postgresDB == nil {
		return nil
	}
	err := postgresDB.Close()
	postgresDB = nil
	return err
}
