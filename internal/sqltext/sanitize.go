// Package sqltext contains the textual cleanup applied to generator output
// before execution, plus the literal and identifier rendering rules used when
// building SQL from tabular data. Nothing here validates SQL grammar;
// malformed statements surface as execution failures.
package sqltext

import "strings"

// Terminator delimits one SQL statement from the next in generated text.
const Terminator = ";"

// Sanitize strips conversational wrapping from raw generator output and
// splits it into discrete executable statements. Fenced code blocks (with an
// optional language tag on the opening fence) are unwrapped, the text is
// split on the statement terminator, empty fragments are dropped, and each
// retained fragment gets the terminator re-appended. Order is preserved.
func Sanitize(raw string) []string {
	text := StripFences(raw)

	statements := make([]string, 0, 2)
	for _, fragment := range strings.Split(text, Terminator) {
		fragment = strings.TrimSpace(fragment)
		if fragment == "" {
			continue
		}
		statements = append(statements, fragment+Terminator)
	}
	return statements
}

// StripFences removes a surrounding markdown code fence, if present. The
// opening fence may carry a language tag ("```sql"); the closing fence is
// bare. Text without a fence is returned trimmed.
func StripFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
		trimmed = trimmed[idx+1:]
	} else {
		trimmed = strings.TrimPrefix(trimmed, "```sql")
		trimmed = strings.TrimPrefix(trimmed, "```")
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

// Join re-serializes a statement set into a single SQL text. Sanitize(Join(x))
// returns x unchanged for any sanitized x.
func Join(statements []string) string {
	return strings.Join(statements, "\n")
}
