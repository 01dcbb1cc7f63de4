package message

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// pgUniqueViolation PostgreSQL 唯一性約束違反的 SQLSTATE.
const pgUniqueViolation = "23505"

// DBTX 倉儲使用的 database/sql 子集，*sql.DB 與 *sql.Tx 皆符合.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	PingContext(ctx context.Context) error
}

// PostgresStore PostgreSQL 訊息存儲實作.
type PostgresStore struct {
	db DBTX
}

// NewPostgresStore 創建新的 PostgreSQL 訊息存儲.
func NewPostgresStore(db DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectColumns = `id, edit_key_hash, message, theme, photo_url, quote, scan_count, created_at, updated_at`

// Create 創建訊息；唯一性約束衝突時回傳 ErrConflict.
func (s *PostgresStore) Create(ctx context.Context, record *Record) error {
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now

	query :=
		`INSERT INTO messages (id, edit_key_hash, message, theme, photo_url, quote, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := s.db.ExecContext(ctx, query,
		record.ID, record.EditKeyHash, record.Message, record.Theme,
		nullString(record.PhotoURL), nullString(record.Quote),
		record.CreatedAt, record.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// GetByID 根據公開 ID 獲取訊息.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (*Record, error) {
	query := `SELECT ` + selectColumns + ` FROM messages WHERE id = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, id))
}

// GetByEditKeyHash 根據編輯金鑰雜湊獲取訊息.
func (s *PostgresStore) GetByEditKeyHash(ctx context.Context, editKeyHash string) (*Record, error) {
	query := `SELECT ` + selectColumns + ` FROM messages WHERE edit_key_hash = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, editKeyHash))
}

// Update 在 id 與編輯金鑰雜湊同時相符時覆寫內容.
func (s *PostgresStore) Update(ctx context.Context, id, editKeyHash string, fields UpdateFields) error {
	query :=
		`UPDATE messages
		 SET message = $1, photo_url = $2, quote = $3, updated_at = $4
		 WHERE id = $5 AND edit_key_hash = $6`

	res, err := s.db.ExecContext(ctx, query,
		fields.Message, nullString(fields.PhotoURL), nullString(fields.Quote),
		time.Now().UTC(), id, editKeyHash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectAffected(res)
}

// Delete 在 id 與編輯金鑰雜湊同時相符時刪除訊息.
func (s *PostgresStore) Delete(ctx context.Context, id, editKeyHash string) error {
	query := `DELETE FROM messages WHERE id = $1 AND edit_key_hash = $2`

	res, err := s.db.ExecContext(ctx, query, id, editKeyHash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectAffected(res)
}

// IncrementScan 以單一 UPDATE 原子遞增掃描次數.
func (s *PostgresStore) IncrementScan(ctx context.Context, id string) error {
	query :=
		`UPDATE messages
		 SET scan_count = scan_count + 1, updated_at = $1
		 WHERE id = $2`

	res, err := s.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectAffected(res)
}

// ListRecent 依建立時間倒序列出訊息.
func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]*Record, error) {
	query := `SELECT ` + selectColumns + ` FROM messages ORDER BY created_at DESC LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	records := make([]*Record, 0, limit)
	for rows.Next() {
		record, err := s.scanOne(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return records, nil
}

// Ping 檢查 PostgreSQL 連線.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresStore) scanOne(row rowScanner) (*Record, error) {
	var (
		record   Record
		photoURL sql.NullString
		quote    sql.NullString
	)

	err := row.Scan(&record.ID, &record.EditKeyHash, &record.Message, &record.Theme,
		&photoURL, &quote, &record.ScanCount, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if photoURL.Valid {
		record.PhotoURL = &photoURL.String
	}
	if quote.Valid {
		record.Quote = &quote.String
	}
	return &record, nil
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
