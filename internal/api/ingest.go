package api

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/chatdb/chatdb/internal/ingest"
)

const maxIngestBodyBytes = 64 << 20

// ingestObjectRequest points the ingest at an object-store key instead of
// an inline body.
type ingestObjectRequest struct {
	SourceObject string `json:"source_object"`
	Format       string `json:"format"`
}

func handleIngest(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Pipeline == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "PIPELINE_NOT_CONFIGURED", "pipeline dependency is not configured", false, nil)
		return
	}

	tableName := strings.TrimSpace(r.PathValue("table"))
	if tableName == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "TABLE_REQUIRED", "table path parameter is required", false, nil)
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType != "" {
		if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
			contentType = parsed
		}
	}

	body := http.MaxBytesReader(w, r.Body, maxIngestBodyBytes)
	defer func() { _ = body.Close() }()

	var frame ingest.Frame
	var err error
	switch contentType {
	case "text/csv":
		frame, err = ingest.ReadCSV(body)
	case "application/vnd.apache.parquet", "application/octet-stream":
		var data []byte
		data, err = io.ReadAll(body)
		if err == nil {
			frame, err = ingest.ReadParquet(data)
		}
	case "application/json", "":
		frame, err = frameFromObjectStore(deps, r, body)
	default:
		writeError(r.Context(), w, http.StatusUnsupportedMediaType, "UNSUPPORTED_CONTENT_TYPE", "expected text/csv, application/vnd.apache.parquet, or application/json", false, nil)
		return
	}
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_INPUT", err.Error(), false, nil)
		return
	}

	report, err := deps.Pipeline.IngestFrame(r.Context(), tableName, frame)
	if err != nil {
		writePipelineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func frameFromObjectStore(deps Dependencies, r *http.Request, body io.Reader) (ingest.Frame, error) {
	if deps.ObjectStore == nil {
		return ingest.Frame{}, fmt.Errorf("object store is not configured")
	}

	var request ingestObjectRequest
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		return ingest.Frame{}, fmt.Errorf("invalid ingest request body: %w", err)
	}
	if strings.TrimSpace(request.SourceObject) == "" {
		return ingest.Frame{}, fmt.Errorf("source_object is required")
	}

	format := strings.ToLower(strings.TrimSpace(request.Format))
	if format == "" {
		switch {
		case strings.HasSuffix(request.SourceObject, ".parquet"):
			format = "parquet"
		default:
			format = "csv"
		}
	}

	object, err := deps.ObjectStore.Get(r.Context(), request.SourceObject)
	if err != nil {
		return ingest.Frame{}, fmt.Errorf("fetch object %q: %w", request.SourceObject, err)
	}
	defer func() { _ = object.Close() }()

	switch format {
	case "csv":
		return ingest.ReadCSV(object)
	case "parquet":
		data, err := io.ReadAll(object)
		if err != nil {
			return ingest.Frame{}, fmt.Errorf("read object %q: %w", request.SourceObject, err)
		}
		return ingest.ReadParquet(data)
	default:
		return ingest.Frame{}, fmt.Errorf("unsupported format %q", format)
	}
}
