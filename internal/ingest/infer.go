package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chatdb/chatdb/internal/sqltext"
)

const (
	maxVarcharLength     = 500
	defaultVarcharLength = 255
)

var datetimeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// InferColumns derives a normalized identifier and a SQL type for every
// column of the frame, sampling the column's values across all rows.
func InferColumns(frame Frame) []ColumnSpec {
	specs := make([]ColumnSpec, len(frame.Columns))
	for i, name := range frame.Columns {
		hint := ""
		if i < len(frame.Hints) {
			hint = frame.Hints[i]
		}
		samples := make([]any, 0, len(frame.Rows))
		for _, row := range frame.Rows {
			if i < len(row) {
				samples = append(samples, row[i])
			}
		}
		specs[i] = ColumnSpec{
			Name: sqltext.NormalizeIdent(name),
			Type: InferColumnType(hint, samples),
		}
	}
	return specs
}

// InferColumnType picks a SQL type for a column. A non-string hint from a
// typed source decides directly; otherwise the sampled values do. Nil
// samples are skipped; a column with no non-nil sample defaults to a
// VARCHAR sized at 255. String columns are sized at twice the longest
// observed value, capped at 500.
func InferColumnType(hint string, samples []any) string {
	switch strings.ToUpper(strings.TrimSpace(hint)) {
	case "BOOLEAN":
		return "BOOLEAN"
	case "INTEGER":
		return "INTEGER"
	case "FLOAT":
		return "FLOAT"
	case "DATETIME":
		return "DATETIME"
	}

	observed := make([]any, 0, len(samples))
	for _, sample := range samples {
		if sample != nil {
			observed = append(observed, sample)
		}
	}
	if len(observed) == 0 {
		return fmt.Sprintf("VARCHAR(%d)", defaultVarcharLength)
	}

	if matchesAll(observed, isBoolean) {
		return "BOOLEAN"
	}
	if matchesAll(observed, isInteger) {
		return "INTEGER"
	}
	if matchesAll(observed, isFloat) {
		return "FLOAT"
	}
	if matchesAll(observed, isDatetime) {
		return "DATETIME"
	}

	maxLen := 0
	for _, sample := range observed {
		if n := len(textOf(sample)); n > maxLen {
			maxLen = n
		}
	}
	size := 2 * maxLen
	if size > maxVarcharLength {
		size = maxVarcharLength
	}
	if size == 0 {
		size = defaultVarcharLength
	}
	return fmt.Sprintf("VARCHAR(%d)", size)
}

// Convert coerces a raw cell value to the Go type matching the inferred
// column type, so literal rendering produces unquoted numbers and
// booleans. Values that fail to parse fall back to their textual form.
func Convert(value any, columnType string) any {
	if value == nil {
		return nil
	}

	switch baseType(columnType) {
	case "BOOLEAN":
		if b, ok := asBoolean(value); ok {
			return b
		}
	case "INTEGER":
		if n, ok := asInteger(value); ok {
			return n
		}
	case "FLOAT":
		if f, ok := asFloat(value); ok {
			return f
		}
	case "DATETIME":
		if ts, ok := asDatetime(value); ok {
			return ts
		}
	}
	return textOf(value)
}

func baseType(columnType string) string {
	if idx := strings.IndexByte(columnType, '('); idx >= 0 {
		columnType = columnType[:idx]
	}
	return strings.ToUpper(strings.TrimSpace(columnType))
}

func matchesAll(samples []any, match func(any) bool) bool {
	for _, sample := range samples {
		if !match(sample) {
			return false
		}
	}
	return true
}

func isBoolean(value any) bool {
	_, ok := asBoolean(value)
	return ok
}

func isInteger(value any) bool {
	_, ok := asInteger(value)
	return ok
}

func isFloat(value any) bool {
	_, ok := asFloat(value)
	return ok
}

func isDatetime(value any) bool {
	_, ok := asDatetime(value)
	return ok
}

func asBoolean(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}

func asInteger(value any) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int32:
		return int64(v), true
	case int:
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func asDatetime(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case string:
		trimmed := strings.TrimSpace(v)
		for _, layout := range datetimeLayouts {
			if ts, err := time.Parse(layout, trimmed); err == nil {
				return ts, true
			}
		}
	}
	return time.Time{}, false
}

func textOf(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}
