// Package pipeline orchestrates natural-language requests end to end:
// schema lookup, SQL generation, sanitization, execution, and result
// explanation, aggregated into a per-request report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chatdb/chatdb/internal/ingest"
	"github.com/chatdb/chatdb/internal/nlsql"
	"github.com/chatdb/chatdb/internal/observability"
	"github.com/chatdb/chatdb/internal/schema"
	"github.com/chatdb/chatdb/internal/sqltext"
	"github.com/chatdb/chatdb/internal/storage"
)

// ErrEmptyInput marks requests missing a required field.
var ErrEmptyInput = errors.New("pipeline: required input is empty")

type OutcomeKind string

const (
	OutcomeRowSet  OutcomeKind = "row_set"
	OutcomeAck     OutcomeKind = "ack"
	OutcomeFailure OutcomeKind = "failure"
)

// Outcome is the result of executing a single sanitized statement.
type Outcome struct {
	Statement    string      `json:"statement"`
	Kind         OutcomeKind `json:"kind"`
	Columns      []string    `json:"columns,omitempty"`
	Rows         [][]any     `json:"rows,omitempty"`
	RowsAffected int64       `json:"rows_affected,omitempty"`
	Error        string      `json:"error,omitempty"`
}

// Report aggregates one request: the generated SQL, the per-statement
// outcomes, and the explanation text on the query path. The SQL field
// carries the full sanitized generator output, even when execution failed
// or only the leading statement was executed; Outcomes record what ran.
type Report struct {
	SQL         string    `json:"sql"`
	Outcomes    []Outcome `json:"outcomes"`
	Explanation string    `json:"explanation,omitempty"`
	Failed      bool      `json:"failed"`
}

// IngestReport summarizes a tabular ingestion: the created table, its
// inferred columns, and the per-row insert counts. Row failures do not
// stop ingestion, so RowsInserted+RowsFailed equals the input row count.
type IngestReport struct {
	Table        string              `json:"table"`
	Columns      []ingest.ColumnSpec `json:"columns"`
	CreateSQL    string              `json:"create_sql"`
	RowsInserted int                 `json:"rows_inserted"`
	RowsFailed   int                 `json:"rows_failed"`
}

// Generator produces raw SQL or explanation text for a task.
type Generator interface {
	Generate(ctx context.Context, task nlsql.Task) (string, error)
}

type Service struct {
	Engine    storage.Engine
	Generator Generator
	Logger    *slog.Logger
}

func NewService(engine storage.Engine, generator Generator, logger *slog.Logger) (*Service, error) {
	if engine == nil {
		return nil, fmt.Errorf("storage engine is required")
	}
	if generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{Engine: engine, Generator: generator, Logger: logger}, nil
}

// CreateTableFromText generates a single CREATE TABLE statement from a
// free-text description and executes it.
func (s *Service) CreateTableFromText(ctx context.Context, description string) (Report, error) {
	started := time.Now()
	defer func() { observability.ObservePipeline("create_table", time.Since(started)) }()

	if strings.TrimSpace(description) == "" {
		return Report{}, fmt.Errorf("%w: description is required", ErrEmptyInput)
	}

	statements, err := s.generate(ctx, nlsql.CreateTableTask(description))
	if err != nil {
		return Report{}, err
	}

	outcome := s.execute(ctx, statements[0], false)
	report := Report{
		SQL:      sqltext.Join(statements),
		Outcomes: []Outcome{outcome},
		Failed:   outcome.Kind == OutcomeFailure,
	}
	s.Logger.InfoContext(ctx, "create table from text", "failed", report.Failed)
	return report, nil
}

// InsertRowsFromText generates one or more INSERT statements for a table
// from a free-text description and executes them in order. Statements are
// isolated: one failure does not abort the rest, and the report only
// counts as failed when every statement failed.
func (s *Service) InsertRowsFromText(ctx context.Context, table, description string) (Report, error) {
	started := time.Now()
	defer func() { observability.ObservePipeline("insert_rows", time.Since(started)) }()

	if strings.TrimSpace(table) == "" {
		return Report{}, fmt.Errorf("%w: table is required", ErrEmptyInput)
	}
	if strings.TrimSpace(description) == "" {
		return Report{}, fmt.Errorf("%w: description is required", ErrEmptyInput)
	}

	statements, err := s.generate(ctx, nlsql.InsertRowsTask(table, description))
	if err != nil {
		return Report{}, err
	}

	outcomes := make([]Outcome, 0, len(statements))
	failures := 0
	for _, statement := range statements {
		outcome := s.execute(ctx, statement, false)
		if outcome.Kind == OutcomeFailure {
			failures++
		}
		outcomes = append(outcomes, outcome)
	}

	report := Report{
		SQL:      sqltext.Join(statements),
		Outcomes: outcomes,
		Failed:   failures == len(statements),
	}
	s.Logger.InfoContext(ctx, "insert rows from text",
		"statements", len(statements), "failures", failures)
	return report, nil
}

// IngestFrame creates a table sized to the frame's inferred column types
// and inserts its rows one statement at a time. A CREATE TABLE failure
// aborts the whole operation; individual row failures are counted and
// ingestion continues.
func (s *Service) IngestFrame(ctx context.Context, table string, frame ingest.Frame) (IngestReport, error) {
	started := time.Now()
	defer func() { observability.ObservePipeline("ingest", time.Since(started)) }()

	table = sqltext.NormalizeIdent(table)
	if table == "" {
		return IngestReport{}, fmt.Errorf("%w: table is required", ErrEmptyInput)
	}
	if len(frame.Columns) == 0 {
		return IngestReport{}, fmt.Errorf("%w: input has no columns", ErrEmptyInput)
	}

	specs := ingest.InferColumns(frame)
	createSQL := buildCreateTable(table, specs)

	createOutcome := s.execute(ctx, createSQL, false)
	if createOutcome.Kind == OutcomeFailure {
		return IngestReport{}, fmt.Errorf("create table %q: %s", table, createOutcome.Error)
	}

	report := IngestReport{Table: table, Columns: specs, CreateSQL: createSQL}
	for _, row := range frame.Rows {
		insertSQL := buildInsert(table, specs, row)
		outcome := s.execute(ctx, insertSQL, false)
		if outcome.Kind == OutcomeFailure {
			report.RowsFailed++
			continue
		}
		report.RowsInserted++
	}

	observability.AddRowsIngested(report.RowsInserted)
	s.Logger.InfoContext(ctx, "ingested frame", "table", table,
		"rows_inserted", report.RowsInserted, "rows_failed", report.RowsFailed)
	return report, nil
}

// AnswerQuestion looks up the table schema, generates a SELECT grounded in
// it, executes the query, and explains the result rows in prose. An
// execution failure is reported immediately with the generated SQL and no
// explanation is attempted.
func (s *Service) AnswerQuestion(ctx context.Context, table, question string) (Report, error) {
	started := time.Now()
	defer func() { observability.ObservePipeline("ask", time.Since(started)) }()

	if strings.TrimSpace(table) == "" {
		return Report{}, fmt.Errorf("%w: table is required", ErrEmptyInput)
	}
	if strings.TrimSpace(question) == "" {
		return Report{}, fmt.Errorf("%w: question is required", ErrEmptyInput)
	}

	described, err := s.Engine.DescribeTable(ctx, table)
	if err != nil {
		return Report{}, fmt.Errorf("describe table %q: %w", table, err)
	}

	statements, err := s.generate(ctx, nlsql.SelectQueryTask(question, described.Render()))
	if err != nil {
		return Report{}, err
	}

	statement := statements[0]
	outcome := s.execute(ctx, statement, true)
	report := Report{SQL: sqltext.Join(statements), Outcomes: []Outcome{outcome}}
	if outcome.Kind == OutcomeFailure {
		report.Failed = true
		return report, nil
	}

	explainStarted := time.Now()
	explanation, err := s.Generator.Generate(ctx,
		nlsql.ExplainResultTask(question, statement, outcome.Columns, outcome.Rows))
	observability.ObserveGeneration(string(nlsql.TaskExplainResult), time.Since(explainStarted), err)
	if err != nil {
		// The rows are already in hand; a failed explanation degrades the
		// report instead of discarding the query result.
		s.Logger.WarnContext(ctx, "explanation generation failed", "error", err)
	} else {
		report.Explanation = strings.TrimSpace(explanation)
	}
	return report, nil
}

// Tables lists the tables visible to the storage engine.
func (s *Service) Tables(ctx context.Context) ([]string, error) {
	return s.Engine.ListTables(ctx)
}

// Schema returns the normalized schema for a table.
func (s *Service) Schema(ctx context.Context, table string) (schema.TableSchema, error) {
	return s.Engine.DescribeTable(ctx, table)
}

// generate runs the task through the backend and sanitizes the output,
// requiring at least one executable statement.
func (s *Service) generate(ctx context.Context, task nlsql.Task) ([]string, error) {
	started := time.Now()
	raw, err := s.Generator.Generate(ctx, task)
	observability.ObserveGeneration(string(task.Kind), time.Since(started), err)
	if err != nil {
		return nil, err
	}

	statements := sqltext.Sanitize(raw)
	if len(statements) == 0 {
		return nil, fmt.Errorf("%w: sanitized output contains no statement", nlsql.ErrBackend)
	}
	return statements, nil
}

func (s *Service) execute(ctx context.Context, statement string, expectRows bool) Outcome {
	result, err := s.Engine.Execute(ctx, statement, expectRows)
	observability.ObserveStatement(err != nil)
	if err != nil {
		s.Logger.WarnContext(ctx, "statement failed", "error", err)
		return Outcome{Statement: statement, Kind: OutcomeFailure, Error: err.Error()}
	}
	if expectRows {
		return Outcome{
			Statement: statement,
			Kind:      OutcomeRowSet,
			Columns:   result.Columns,
			Rows:      result.Rows,
		}
	}
	return Outcome{Statement: statement, Kind: OutcomeAck, RowsAffected: result.RowsAffected}
}

func buildCreateTable(table string, specs []ingest.ColumnSpec) string {
	parts := make([]string, len(specs))
	for i, spec := range specs {
		parts[i] = fmt.Sprintf("%s %s", sqltext.QuoteIdent(spec.Name), spec.Type)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)%s",
		sqltext.QuoteIdent(table), strings.Join(parts, ", "), sqltext.Terminator)
}

func buildInsert(table string, specs []ingest.ColumnSpec, row []any) string {
	names := make([]string, len(specs))
	values := make([]string, len(specs))
	for i, spec := range specs {
		names[i] = sqltext.QuoteIdent(spec.Name)
		var cell any
		if i < len(row) {
			cell = row[i]
		}
		values[i] = sqltext.Literal(ingest.Convert(cell, spec.Type))
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)%s",
		sqltext.QuoteIdent(table), strings.Join(names, ", "),
		strings.Join(values, ", "), sqltext.Terminator)
}
