package nlsql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type fakeCompleter struct {
	prompts      []string
	temperatures []float64
	output       string
	err          error
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string, temperature float64) (string, error) {
	f.prompts = append(f.prompts, prompt)
	f.temperatures = append(f.temperatures, temperature)
	return f.output, f.err
}

func TestGenerateUsesSQLTemperatureForSQLTasks(t *testing.T) {
	backend := &fakeCompleter{output: "CREATE TABLE t (id INTEGER);"}
	gen, err := NewGenerator(backend, Config{Dialect: "DuckDB", SQLTemperature: 0, ExplainTemperature: 0.3})
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}

	for _, task := range []Task{
		CreateTableTask("a table"),
		InsertRowsTask("t", "some rows"),
		SelectQueryTask("how many?", "Table: t\nColumns:\n  - id (INTEGER)\n"),
	} {
		if _, err := gen.Generate(context.Background(), task); err != nil {
			t.Fatalf("Generate(%s) error = %v", task.Kind, err)
		}
	}
	for i, temp := range backend.temperatures {
		if temp != 0 {
			t.Fatalf("temperature[%d] = %f, want 0", i, temp)
		}
	}
}

func TestGenerateUsesExplainTemperatureForExplanation(t *testing.T) {
	backend := &fakeCompleter{output: "Two rows matched."}
	gen, err := NewGenerator(backend, Config{ExplainTemperature: 0.3})
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}

	task := ExplainResultTask("who?", "SELECT name FROM t;", []string{"name"}, [][]any{{"Alice"}})
	if _, err := gen.Generate(context.Background(), task); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if backend.temperatures[0] != 0.3 {
		t.Fatalf("temperature = %f, want 0.3", backend.temperatures[0])
	}
}

func TestGenerateWrapsBackendFailure(t *testing.T) {
	backend := &fakeCompleter{err: fmt.Errorf("connection refused")}
	gen, err := NewGenerator(backend, Config{})
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}

	_, err = gen.Generate(context.Background(), CreateTableTask("x"))
	if !errors.Is(err, ErrBackend) {
		t.Fatalf("error = %v, want ErrBackend", err)
	}
}

func TestGenerateRejectsEmptyOutput(t *testing.T) {
	backend := &fakeCompleter{output: "   \n"}
	gen, err := NewGenerator(backend, Config{})
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}

	_, err = gen.Generate(context.Background(), SelectQueryTask("q", "schema"))
	if !errors.Is(err, ErrBackend) {
		t.Fatalf("error = %v, want ErrBackend", err)
	}
}

func TestSelectPromptEmbedsSchemaAndQuestion(t *testing.T) {
	backend := &fakeCompleter{output: "SELECT 1;"}
	gen, err := NewGenerator(backend, Config{Dialect: "PostgreSQL"})
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}

	schemaText := "Table: students\nColumns:\n  - gpa (FLOAT)\n"
	if _, err := gen.Generate(context.Background(), SelectQueryTask("Which students have GPA above 3.5?", schemaText)); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	prompt := backend.prompts[0]
	if !strings.Contains(prompt, schemaText) {
		t.Fatalf("prompt missing schema text: %q", prompt)
	}
	if !strings.Contains(prompt, "Which students have GPA above 3.5?") {
		t.Fatalf("prompt missing question: %q", prompt)
	}
	if !strings.Contains(prompt, "PostgreSQL") {
		t.Fatalf("prompt missing dialect: %q", prompt)
	}
}

func TestInsertPromptNamesTable(t *testing.T) {
	backend := &fakeCompleter{output: "INSERT INTO employees (name) VALUES ('Alice');"}
	gen, err := NewGenerator(backend, Config{})
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}

	if _, err := gen.Generate(context.Background(), InsertRowsTask("employees", "add Alice")); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !strings.Contains(backend.prompts[0], "'employees'") {
		t.Fatalf("prompt missing table name: %q", backend.prompts[0])
	}
}

func TestOpenAIClientComplete(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := jsonDecode(r, &gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"SELECT 1;\n"}}]}`))
	}))
	defer server.Close()

	client, err := NewOpenAIClient(OpenAIConfig{BaseURL: server.URL, APIKey: "k", Model: "m"})
	if err != nil {
		t.Fatalf("NewOpenAIClient() error = %v", err)
	}

	got, err := client.Complete(context.Background(), "prompt", 0)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "SELECT 1;" {
		t.Fatalf("Complete() = %q", got)
	}
	if gotAuth != "Bearer k" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotBody["model"] != "m" {
		t.Fatalf("model = %v", gotBody["model"])
	}
}

func TestOpenAIClientErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, err := NewOpenAIClient(OpenAIConfig{BaseURL: server.URL, APIKey: "k"})
	if err != nil {
		t.Fatalf("NewOpenAIClient() error = %v", err)
	}
	if _, err := client.Complete(context.Background(), "prompt", 0); err == nil {
		t.Fatal("expected error for 429 response")
	}
}

func jsonDecode(r *http.Request, dst any) error {
	defer func() { _ = r.Body.Close() }()
	return json.NewDecoder(r.Body).Decode(dst)
}
