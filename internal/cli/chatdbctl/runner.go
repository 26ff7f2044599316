// Package chatdbctl implements the command runner behind the chatdbctl
// binary: a thin HTTP client over the service API.
package chatdbctl

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Stdout     io.Writer
	Stderr     io.Writer
}

func Run(ctx context.Context, args []string, defaults Options) int {
	stdout := defaults.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := defaults.Stderr
	if stderr == nil {
		stderr = io.Discard
	}

	fs := flag.NewFlagSet("chatdbctl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	baseURL := fs.String("base-url", firstNonEmpty(defaults.BaseURL, "http://localhost:8080"), "ChatDB API base URL")
	timeout := fs.Duration("timeout", durationOr(defaults.Timeout, 30*time.Second), "HTTP timeout (e.g. 30s)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		writeUsage(stderr)
		return 2
	}

	client := defaults.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: *timeout}
	}

	command := strings.TrimSpace(fs.Arg(0))
	rest := fs.Args()[1:]

	method := http.MethodGet
	path := ""
	contentType := ""
	var body io.Reader

	switch command {
	case "health":
		path = "/v1/health"
	case "ready":
		path = "/v1/ready"
	case "tables":
		path = "/v1/tables"
	case "schema":
		if len(rest) != 1 {
			_, _ = fmt.Fprintln(stderr, "usage: chatdbctl schema <table>")
			return 2
		}
		path = "/v1/tables/" + url.PathEscape(rest[0]) + "/schema"
	case "create":
		if len(rest) < 1 {
			_, _ = fmt.Fprintln(stderr, "usage: chatdbctl create <description>")
			return 2
		}
		method, path = http.MethodPost, "/v1/tables"
		contentType = "application/json"
		body = jsonBody(map[string]string{"description": strings.Join(rest, " ")})
	case "insert":
		if len(rest) < 2 {
			_, _ = fmt.Fprintln(stderr, "usage: chatdbctl insert <table> <description>")
			return 2
		}
		method, path = http.MethodPost, "/v1/tables/"+url.PathEscape(rest[0])+"/rows"
		contentType = "application/json"
		body = jsonBody(map[string]string{"description": strings.Join(rest[1:], " ")})
	case "ingest":
		if len(rest) != 2 {
			_, _ = fmt.Fprintln(stderr, "usage: chatdbctl ingest <table> <file.csv|file.parquet>")
			return 2
		}
		data, err := os.ReadFile(rest[1])
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "read %s: %v\n", rest[1], err)
			return 1
		}
		method, path = http.MethodPost, "/v1/ingest/"+url.PathEscape(rest[0])
		contentType = contentTypeForFile(rest[1])
		body = bytes.NewReader(data)
	case "put":
		if len(rest) != 2 {
			_, _ = fmt.Fprintln(stderr, "usage: chatdbctl put <key> <file>")
			return 2
		}
		data, err := os.ReadFile(rest[1])
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "read %s: %v\n", rest[1], err)
			return 1
		}
		method, path = http.MethodPut, "/v1/objects/"+escapeKeyPath(rest[0])
		contentType = contentTypeForFile(rest[1])
		body = bytes.NewReader(data)
	case "stat":
		if len(rest) != 1 {
			_, _ = fmt.Fprintln(stderr, "usage: chatdbctl stat <key>")
			return 2
		}
		path = "/v1/objects/" + escapeKeyPath(rest[0])
	case "rm":
		if len(rest) != 1 {
			_, _ = fmt.Fprintln(stderr, "usage: chatdbctl rm <key>")
			return 2
		}
		method, path = http.MethodDelete, "/v1/objects/"+escapeKeyPath(rest[0])
	case "ask":
		if len(rest) < 2 {
			_, _ = fmt.Fprintln(stderr, "usage: chatdbctl ask <table> <question>")
			return 2
		}
		method, path = http.MethodPost, "/v1/ask"
		contentType = "application/json"
		body = jsonBody(map[string]string{
			"table":    rest[0],
			"question": strings.Join(rest[1:], " "),
		})
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n\n", command)
		writeUsage(stderr)
		return 2
	}

	endpoint := strings.TrimRight(*baseURL, "/") + path
	code, responseBody, err := doRequest(ctx, client, method, endpoint, contentType, body)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "request failed: %v\n", err)
		return 1
	}

	if code >= 400 {
		_, _ = fmt.Fprintf(stderr, "http %d: %s\n", code, strings.TrimSpace(string(responseBody)))
		return 1
	}

	if pretty, ok := prettyJSON(responseBody); ok {
		_, _ = fmt.Fprintln(stdout, pretty)
		return 0
	}
	if len(responseBody) > 0 {
		_, _ = fmt.Fprintln(stdout, string(responseBody))
	}
	return 0
}

func doRequest(ctx context.Context, client *http.Client, method, url, contentType string, body io.Reader) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, responseBody, nil
}

func jsonBody(payload any) io.Reader {
	encoded, _ := json.Marshal(payload)
	return bytes.NewReader(encoded)
}

func contentTypeForFile(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".parquet":
		return "application/vnd.apache.parquet"
	case ".csv":
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}

// escapeKeyPath escapes each segment of an object key while keeping the
// slashes that separate them, so nested keys address nested routes.
func escapeKeyPath(key string) string {
	parts := strings.Split(strings.TrimPrefix(key, "/"), "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

func prettyJSON(raw []byte) (string, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", false
	}
	var anyValue any
	if err := json.Unmarshal(raw, &anyValue); err != nil {
		return "", false
	}
	formatted, err := json.MarshalIndent(anyValue, "", "  ")
	if err != nil {
		return "", false
	}
	return string(formatted), true
}

func writeUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "usage: chatdbctl [flags] <command>")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "commands:")
	_, _ = fmt.Fprintln(w, "  health                         GET /v1/health")
	_, _ = fmt.Fprintln(w, "  ready                          GET /v1/ready")
	_, _ = fmt.Fprintln(w, "  tables                         GET /v1/tables")
	_, _ = fmt.Fprintln(w, "  schema <table>                 GET /v1/tables/{table}/schema")
	_, _ = fmt.Fprintln(w, "  create <description>           POST /v1/tables")
	_, _ = fmt.Fprintln(w, "  insert <table> <description>   POST /v1/tables/{table}/rows")
	_, _ = fmt.Fprintln(w, "  ingest <table> <file>          POST /v1/ingest/{table}")
	_, _ = fmt.Fprintln(w, "  put <key> <file>               PUT /v1/objects/{key}")
	_, _ = fmt.Fprintln(w, "  stat <key>                     GET /v1/objects/{key}")
	_, _ = fmt.Fprintln(w, "  rm <key>                       DELETE /v1/objects/{key}")
	_, _ = fmt.Fprintln(w, "  ask <table> <question>         POST /v1/ask")
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	return b
}

func durationOr(v, fallback time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return fallback
}
