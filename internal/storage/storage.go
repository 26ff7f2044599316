// Package storage defines the relational engine and object store
// capabilities the pipeline executes against. Engines run one statement at a
// time; each execution acquires and releases its own connection scope, so no
// transaction spans multiple statements.
package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/chatdb/chatdb/internal/schema"
)

// ErrUnknownTable reports a schema lookup on a table that does not exist.
var ErrUnknownTable = errors.New("storage: unknown table")

// Result carries the output of one executed statement: column-ordered rows
// for row-returning statements, or the affected-row count otherwise.
type Result struct {
	Columns      []string
	Rows         [][]any
	RowsAffected int64
}

type Engine interface {
	// Execute runs a single SQL statement. expectRows selects between the
	// row-returning and acknowledgment paths.
	Execute(ctx context.Context, statement string, expectRows bool) (Result, error)
	ListTables(ctx context.Context) ([]string, error)
	// DescribeTable returns the normalized schema for a table, or
	// ErrUnknownTable if the identifier does not exist.
	DescribeTable(ctx context.Context, table string) (schema.TableSchema, error)
	Ping(ctx context.Context) error
	Close() error
}

var ErrObjectNotFound = errors.New("object not found")

type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ETag         string    `json:"etag,omitempty"`
	LastModified time.Time `json:"last_modified,omitzero"`
}

type PutOptions struct {
	ContentType string
}

// ObjectStore stages ingest sources: CSV and Parquet files are uploaded
// once and later referenced by object key instead of inlined in the
// ingest request body.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, opts PutOptions) (ObjectInfo, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Stat(ctx context.Context, key string) (ObjectInfo, error)
	Delete(ctx context.Context, key string) error
}
