package ingest

import (
	"bytes"
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"
)

// ReadParquet decodes a Parquet document with a flat schema into a Frame.
// Leaf values are converted to their natural Go types; null values become
// nil cells.
func ReadParquet(data []byte) (Frame, error) {
	if len(data) == 0 {
		return Frame{}, fmt.Errorf("parquet input is empty")
	}

	file, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Frame{}, fmt.Errorf("open parquet file: %w", err)
	}

	fields := file.Schema().Fields()
	if len(fields) == 0 {
		return Frame{}, fmt.Errorf("parquet schema has no columns")
	}

	frame := Frame{
		Columns: make([]string, len(fields)),
		Hints:   make([]string, len(fields)),
	}
	for i, field := range fields {
		frame.Columns[i] = field.Name()
		frame.Hints[i] = typeHint(field)
	}

	buf := make([]parquet.Row, 64)
	for _, group := range file.RowGroups() {
		rows := group.Rows()
		for {
			n, err := rows.ReadRows(buf)
			for _, parquetRow := range buf[:n] {
				row := make([]any, len(fields))
				for _, value := range parquetRow {
					col := value.Column()
					if col < 0 || col >= len(row) {
						continue
					}
					row[col] = parquetValue(value)
				}
				frame.Rows = append(frame.Rows, row)
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				_ = rows.Close()
				return Frame{}, fmt.Errorf("read parquet rows: %w", err)
			}
		}
		if err := rows.Close(); err != nil {
			return Frame{}, fmt.Errorf("close parquet row reader: %w", err)
		}
	}

	return frame, nil
}

// typeHint maps a leaf column's physical kind to a column type hint,
// matching the conversions parquetValue applies to its values. Byte-array
// columns carry no hint and are inferred from samples.
func typeHint(field parquet.Field) string {
	if !field.Leaf() {
		return ""
	}
	switch field.Type().Kind() {
	case parquet.Boolean:
		return "BOOLEAN"
	case parquet.Int32, parquet.Int64:
		return "INTEGER"
	case parquet.Float, parquet.Double:
		return "FLOAT"
	default:
		return ""
	}
}

func parquetValue(value parquet.Value) any {
	if value.IsNull() {
		return nil
	}
	switch value.Kind() {
	case parquet.Boolean:
		return value.Boolean()
	case parquet.Int32:
		return int64(value.Int32())
	case parquet.Int64:
		return value.Int64()
	case parquet.Float:
		return float64(value.Float())
	case parquet.Double:
		return value.Double()
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return value.String()
	default:
		return value.String()
	}
}
