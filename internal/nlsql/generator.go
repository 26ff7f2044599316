// Package nlsql bridges natural-language requests to SQL text through a
// pluggable text-completion backend. The generator only produces raw text;
// sanitization and execution are the caller's responsibility.
package nlsql

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrBackend marks failures of the generation backend: unreachable service,
// error payloads, or empty output.
var ErrBackend = errors.New("nlsql: generation backend error")

type TaskKind string

const (
	TaskCreateTable   TaskKind = "create_table"
	TaskInsertRows    TaskKind = "insert_rows"
	TaskSelectQuery   TaskKind = "select_query"
	TaskExplainResult TaskKind = "explain_result"
)

// Task is the immutable per-request input to the generator. Exactly one
// constructor applies per kind; unused fields stay zero.
type Task struct {
	Kind        TaskKind
	Description string
	Table       string
	Question    string
	SchemaText  string
	SQL         string
	Columns     []string
	Rows        [][]any
}

func CreateTableTask(description string) Task {
	return Task{Kind: TaskCreateTable, Description: description}
}

func InsertRowsTask(table, description string) Task {
	return Task{Kind: TaskInsertRows, Table: table, Description: description}
}

func SelectQueryTask(question, schemaText string) Task {
	return Task{Kind: TaskSelectQuery, Question: question, SchemaText: schemaText}
}

func ExplainResultTask(question, sql string, columns []string, rows [][]any) Task {
	return Task{Kind: TaskExplainResult, Question: question, SQL: sql, Columns: columns, Rows: rows}
}

// Completer is the text-generation backend capability. Any provider that can
// complete a prompt at a given temperature is substitutable.
type Completer interface {
	Complete(ctx context.Context, prompt string, temperature float64) (string, error)
}

type Config struct {
	// Dialect names the SQL dialect the prompts target, e.g. "DuckDB".
	Dialect string
	// SQLTemperature applies to all SQL-producing tasks; zero favors
	// reproducible SQL.
	SQLTemperature float64
	// ExplainTemperature applies to the explanation task only.
	ExplainTemperature float64
}

type Generator struct {
	backend Completer
	cfg     Config
}

func NewGenerator(backend Completer, cfg Config) (*Generator, error) {
	if backend == nil {
		return nil, fmt.Errorf("completion backend is required")
	}
	if strings.TrimSpace(cfg.Dialect) == "" {
		cfg.Dialect = "DuckDB"
	}
	return &Generator{backend: backend, cfg: cfg}, nil
}

// Generate renders the prompt for the task and runs it through the backend.
// The returned text is raw generator output: it may contain code fences or
// multiple statements and must be sanitized before execution.
func (g *Generator) Generate(ctx context.Context, task Task) (string, error) {
	prompt, err := buildPrompt(g.cfg.Dialect, task)
	if err != nil {
		return "", err
	}

	temperature := g.cfg.SQLTemperature
	if task.Kind == TaskExplainResult {
		temperature = g.cfg.ExplainTemperature
	}

	output, err := g.backend.Complete(ctx, prompt, temperature)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackend, err)
	}
	if strings.TrimSpace(output) == "" {
		return "", fmt.Errorf("%w: backend returned empty output", ErrBackend)
	}
	return output, nil
}
