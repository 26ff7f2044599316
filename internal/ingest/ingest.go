// Package ingest decodes tabular inputs (CSV, Parquet) into frames and
// infers per-column SQL types from sampled values.
package ingest

// Frame is a decoded tabular input: an ordered header plus row values.
// Cell values are nil for absent data, otherwise strings (CSV) or the
// decoded native type (Parquet). Hints, when present, carry per-column
// type hints from the source format and parallel Columns; untyped sources
// such as CSV leave it nil.
type Frame struct {
	Columns []string
	Hints   []string
	Rows    [][]any
}

// ColumnSpec couples a normalized column identifier with its inferred SQL type.
type ColumnSpec struct {
	Name string
	Type string
}
