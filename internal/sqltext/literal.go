package sqltext

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Literal renders a Go value as a SQL literal for generated INSERT text.
// Strings are single-quoted with embedded quotes doubled, nil maps to the
// unquoted NULL literal, and other values use their natural textual form.
func Literal(value any) string {
	switch v := value.(type) {
	case nil:
		return "NULL"
	case string:
		return QuoteString(v)
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	case time.Time:
		return QuoteString(v.UTC().Format("2006-01-02 15:04:05"))
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// QuoteString single-quotes a string literal, doubling embedded quotes.
func QuoteString(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

// QuoteIdent double-quotes an identifier, doubling embedded quotes.
func QuoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

// NormalizeIdent turns an arbitrary column heading into a usable identifier:
// surrounding whitespace is trimmed and spaces and hyphens become
// underscores.
func NormalizeIdent(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "-", "_")
	return name
}
