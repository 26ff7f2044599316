// Package schema holds the normalized table schema model shared by the HTTP
// surface and the statement generator. The rendered form produced by Render
// is fed verbatim into SELECT generation prompts, so its exact layout is a
// contract with the prompt templates in the nlsql package.
package schema

import (
	"fmt"
	"strings"
)

type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

type TableSchema struct {
	Table   string   `json:"table"`
	Columns []Column `json:"columns"`
}

// Render produces the deterministic text form:
//
//	Table: <name>
//	Columns:
//	  - <col> (<TYPE>)
func (s TableSchema) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Table: %s\n", s.Table)
	b.WriteString("Columns:\n")
	for _, col := range s.Columns {
		fmt.Fprintf(&b, "  - %s (%s)\n", col.Name, col.Type)
	}
	return b.String()
}
