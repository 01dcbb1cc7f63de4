// Package migrations 內嵌 PostgreSQL 結構遷移檔，由 goose 執行.
package migrations

import "embed"

// FS 內嵌的遷移 SQL 檔案.
//
//go:embed *.sql
var FS embed.FS
