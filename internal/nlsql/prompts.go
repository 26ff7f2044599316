package nlsql

import (
	"fmt"
	"strings"
)

// One instruction template per task kind. Each template fixes the expected
// output shape so the sanitizer downstream can rely on it: a single CREATE
// TABLE statement, one INSERT per line, a single SELECT, or a short prose
// explanation. The SELECT template embeds the schema rendering produced by
// schema.TableSchema.Render, so the two must change in lockstep.

func buildPrompt(dialect string, task Task) (string, error) {
	switch task.Kind {
	case TaskCreateTable:
		return createTablePrompt(dialect, task), nil
	case TaskInsertRows:
		return insertRowsPrompt(dialect, task), nil
	case TaskSelectQuery:
		return selectQueryPrompt(dialect, task), nil
	case TaskExplainResult:
		return explainResultPrompt(task), nil
	default:
		return "", fmt.Errorf("unknown task kind %q", task.Kind)
	}
}

func createTablePrompt(dialect string, task Task) string {
	return fmt.Sprintf(`You are a SQL expert. Convert the following natural language description into a %s CREATE TABLE statement.

User description: %q

Requirements:
- Use appropriate data types (INTEGER, VARCHAR, FLOAT, DATE, etc.)
- Include PRIMARY KEY where appropriate
- Use NOT NULL constraints when fields are essential
- Return ONLY the SQL statement, no explanation

Example:
Input: "Create a table called students with id, name, and gpa"
Output: CREATE TABLE students (id INTEGER PRIMARY KEY, name VARCHAR(100) NOT NULL, gpa FLOAT);

Now generate the CREATE TABLE statement:`, dialect, task.Description)
}

func insertRowsPrompt(dialect string, task Task) string {
	return fmt.Sprintf(`You are a SQL expert. Convert the following natural language description into %s INSERT statements for the table '%s'.

User description: %q

Requirements:
- Generate INSERT INTO statements
- Infer appropriate values and data types
- Return ONLY the SQL statements, one per line, no explanation
- Use single quotes for strings

Example:
Input for table 'students': "Add Alice with GPA 3.8 and Bob with GPA 3.5"
Output:
INSERT INTO students (name, gpa) VALUES ('Alice', 3.8);
INSERT INTO students (name, gpa) VALUES ('Bob', 3.5);

Now generate the INSERT statements:`, dialect, task.Table, task.Description)
}

func selectQueryPrompt(dialect string, task Task) string {
	return fmt.Sprintf(`You are a SQL expert. Convert the following question into a %s SELECT query.

Table Schema:
%s
Question: %q

Requirements:
- Write a valid %s SELECT query
- Use appropriate WHERE, ORDER BY, GROUP BY, LIMIT clauses as needed
- Return ONLY the SQL query, no explanation

Example:
Schema: Table students (id INTEGER, name VARCHAR, gpa FLOAT)
Question: "Which students have GPA above 3.5?"
Output: SELECT name, gpa FROM students WHERE gpa > 3.5;

Now generate the SQL query:`, dialect, task.SchemaText, task.Question, dialect)
}

func explainResultPrompt(task Task) string {
	return fmt.Sprintf(`You are a helpful assistant. Explain the following database query results in simple, natural language.

Question: %q
SQL Query: %s
Columns: %s
Results: %s

Provide a brief, clear explanation (2-3 sentences maximum) of what the results show.

Example:
Question: "Which students have GPA above 3.5?"
Results: [[Alice 3.8] [Bob 3.9]]
Explanation: "Two students have a GPA above 3.5: Alice with 3.8 and Bob with 3.9."

Now provide your explanation:`, task.Question, task.SQL, strings.Join(task.Columns, ", "), renderRows(task.Rows))
}

func renderRows(rows [][]any) string {
	rendered := make([]string, 0, len(rows))
	for _, row := range rows {
		rendered = append(rendered, fmt.Sprintf("%v", row))
	}
	return "[" + strings.Join(rendered, " ") + "]"
}
