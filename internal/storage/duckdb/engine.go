// Package duckdb implements the storage engine over an embedded DuckDB
// database.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/chatdb/chatdb/internal/schema"
	"github.com/chatdb/chatdb/internal/storage"
)

type Engine struct {
	db *sql.DB
}

// Open opens a file-backed database at path, or an in-memory database when
// path is empty.
func Open(ctx context.Context, path string) (*Engine, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}
	return &Engine{db: db}, nil
}

func NewWithDB(db *sql.DB) *Engine {
	return &Engine{db: db}
}

func (e *Engine) Execute(ctx context.Context, statement string, expectRows bool) (storage.Result, error) {
	if strings.TrimSpace(statement) == "" {
		return storage.Result{}, fmt.Errorf("statement is required")
	}

	if !expectRows {
		res, err := e.db.ExecContext(ctx, statement)
		if err != nil {
			return storage.Result{}, fmt.Errorf("execute statement: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			affected = 0
		}
		return storage.Result{RowsAffected: affected}, nil
	}

	rows, err := e.db.QueryContext(ctx, statement)
	if err != nil {
		return storage.Result{}, fmt.Errorf("execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return collectRows(rows)
}

func (e *Engine) ListTables(ctx context.Context) ([]string, error) {
	rows, err := e.db.QueryContext(ctx, `
SELECT table_name
FROM information_schema.tables
WHERE table_schema = 'main'
ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	tables := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table names: %w", err)
	}
	return tables, nil
}

func (e *Engine) DescribeTable(ctx context.Context, table string) (schema.TableSchema, error) {
	rows, err := e.db.QueryContext(ctx, `
SELECT column_name, data_type, is_nullable
FROM information_schema.columns
WHERE table_schema = 'main' AND table_name = ?
ORDER BY ordinal_position`, table)
	if err != nil {
		return schema.TableSchema{}, fmt.Errorf("describe table %q: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	result := schema.TableSchema{Table: table}
	for rows.Next() {
		var col schema.Column
		var nullable string
		if err := rows.Scan(&col.Name, &col.Type, &nullable); err != nil {
			return schema.TableSchema{}, fmt.Errorf("scan column row: %w", err)
		}
		col.Nullable = strings.EqualFold(nullable, "YES")
		result.Columns = append(result.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return schema.TableSchema{}, fmt.Errorf("iterate column rows: %w", err)
	}
	if len(result.Columns) == 0 {
		return schema.TableSchema{}, storage.ErrUnknownTable
	}
	return result, nil
}

func (e *Engine) Ping(ctx context.Context) error {
	if err := e.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping duckdb: %w", err)
	}
	return nil
}

func (e *Engine) Close() error {
	return e.db.Close()
}

func collectRows(rows *sql.Rows) (storage.Result, error) {
	columns, err := rows.Columns()
	if err != nil {
		return storage.Result{}, fmt.Errorf("query columns: %w", err)
	}

	resultRows := make([][]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return storage.Result{}, fmt.Errorf("scan row: %w", err)
		}
		resultRows = append(resultRows, normalizeValues(values))
	}
	if err := rows.Err(); err != nil {
		return storage.Result{}, fmt.Errorf("iterate rows: %w", err)
	}

	return storage.Result{Columns: columns, Rows: resultRows}, nil
}

func normalizeValues(values []any) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		switch typed := value.(type) {
		case []byte:
			normalized[i] = string(typed)
		default:
			normalized[i] = typed
		}
	}
	return normalized
}
