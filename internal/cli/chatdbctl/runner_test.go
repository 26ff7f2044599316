package chatdbctl

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRunTablesCommand(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tables":["students"]}`))
	}))
	defer srv.Close()

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	code := Run(context.Background(), []string{"-base-url", srv.URL, "tables"}, Options{
		Stdout:  &stdout,
		Stderr:  &stderr,
		Timeout: 2 * time.Second,
	})
	if code != 0 {
		t.Fatalf("exit code = %d, stderr=%s", code, stderr.String())
	}
	if gotMethod != http.MethodGet || gotPath != "/v1/tables" {
		t.Fatalf("request = %s %s", gotMethod, gotPath)
	}
	if stdout.Len() == 0 {
		t.Fatal("expected command output")
	}
}

func TestRunCreateCommand(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"sql":"CREATE TABLE students (id INTEGER);"}`))
	}))
	defer srv.Close()

	code := Run(context.Background(), []string{
		"-base-url", srv.URL,
		"create", "a", "students", "table",
	}, Options{})
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if gotMethod != http.MethodPost || gotPath != "/v1/tables" {
		t.Fatalf("request = %s %s", gotMethod, gotPath)
	}
	if gotBody["description"] != "a students table" {
		t.Fatalf("description = %q", gotBody["description"])
	}
}

func TestRunAskCommand(t *testing.T) {
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"explanation":"Alice."}`))
	}))
	defer srv.Close()

	code := Run(context.Background(), []string{
		"-base-url", srv.URL,
		"ask", "students", "who", "has", "the", "best", "gpa?",
	}, Options{})
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if gotBody["table"] != "students" || gotBody["question"] != "who has the best gpa?" {
		t.Fatalf("body = %v", gotBody)
	}
}

func TestRunIngestCommandSendsCSVFile(t *testing.T) {
	var gotPath, gotContentType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"rows_inserted":1}`))
	}))
	defer srv.Close()

	file := filepath.Join(t.TempDir(), "students.csv")
	if err := os.WriteFile(file, []byte("name\nAlice\n"), 0o600); err != nil {
		t.Fatalf("write file failed: %v", err)
	}

	code := Run(context.Background(), []string{
		"-base-url", srv.URL,
		"ingest", "students", file,
	}, Options{})
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if gotPath != "/v1/ingest/students" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotContentType != "text/csv" {
		t.Fatalf("content type = %q", gotContentType)
	}
	if string(gotBody) != "name\nAlice\n" {
		t.Fatalf("body = %q", gotBody)
	}
}

func TestRunPutCommandUploadsFile(t *testing.T) {
	var gotMethod, gotPath, gotContentType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"key":"uploads/students.csv","size":11}`))
	}))
	defer srv.Close()

	file := filepath.Join(t.TempDir(), "students.csv")
	if err := os.WriteFile(file, []byte("name\nAlice\n"), 0o600); err != nil {
		t.Fatalf("write file failed: %v", err)
	}

	code := Run(context.Background(), []string{
		"-base-url", srv.URL,
		"put", "uploads/students.csv", file,
	}, Options{})
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if gotMethod != http.MethodPut || gotPath != "/v1/objects/uploads/students.csv" {
		t.Fatalf("request = %s %s", gotMethod, gotPath)
	}
	if gotContentType != "text/csv" {
		t.Fatalf("content type = %q", gotContentType)
	}
	if string(gotBody) != "name\nAlice\n" {
		t.Fatalf("body = %q", gotBody)
	}
}

func TestRunRmCommand(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	code := Run(context.Background(), []string{
		"-base-url", srv.URL,
		"rm", "uploads/students.csv",
	}, Options{})
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if gotMethod != http.MethodDelete || gotPath != "/v1/objects/uploads/students.csv" {
		t.Fatalf("request = %s %s", gotMethod, gotPath)
	}
}

func TestRunReturnsErrorOnHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error_code":"TABLE_NOT_FOUND"}`))
	}))
	defer srv.Close()

	var stderr bytes.Buffer
	code := Run(context.Background(), []string{"-base-url", srv.URL, "schema", "missing"}, Options{Stderr: &stderr})
	if code != 1 {
		t.Fatalf("exit code = %d, stderr=%s", code, stderr.String())
	}
}

func TestRunUnknownCommand(t *testing.T) {
	var stderr bytes.Buffer
	code := Run(context.Background(), []string{"unknown"}, Options{Stderr: &stderr})
	if code != 2 {
		t.Fatalf("exit code = %d", code)
	}
	if stderr.Len() == 0 {
		t.Fatal("expected usage output")
	}
}

func TestRunMissingArguments(t *testing.T) {
	var stderr bytes.Buffer
	code := Run(context.Background(), []string{"insert", "students"}, Options{Stderr: &stderr})
	if code != 2 {
		t.Fatalf("exit code = %d", code)
	}
}
