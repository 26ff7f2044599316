package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/chatdb/chatdb/internal/nlsql"
	"github.com/chatdb/chatdb/internal/pipeline"
	"github.com/chatdb/chatdb/internal/storage"
)

type createTableRequest struct {
	Description string `json:"description"`
}

type insertRowsRequest struct {
	Description string `json:"description"`
}

func handleListTables(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Pipeline == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "PIPELINE_NOT_CONFIGURED", "pipeline dependency is not configured", false, nil)
		return
	}
	tables, err := deps.Pipeline.Tables(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "STORAGE_ERROR", "failed to list tables", true, map[string]any{"details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tables": tables})
}

func handleCreateTable(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Pipeline == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "PIPELINE_NOT_CONFIGURED", "pipeline dependency is not configured", false, nil)
		return
	}

	var request createTableRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid create table request body", false, map[string]any{"details": err.Error()})
		return
	}

	report, err := deps.Pipeline.CreateTableFromText(r.Context(), request.Description)
	if err != nil {
		writePipelineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func handleGetSchema(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Pipeline == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "PIPELINE_NOT_CONFIGURED", "pipeline dependency is not configured", false, nil)
		return
	}

	described, err := deps.Pipeline.Schema(r.Context(), r.PathValue("table"))
	if err != nil {
		if errors.Is(err, storage.ErrUnknownTable) {
			writeError(r.Context(), w, http.StatusNotFound, "TABLE_NOT_FOUND", "table does not exist", false, nil)
			return
		}
		writeError(r.Context(), w, http.StatusInternalServerError, "STORAGE_ERROR", "failed to describe table", true, map[string]any{"details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"table":    described.Table,
		"columns":  described.Columns,
		"rendered": described.Render(),
	})
}

func handleInsertRows(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Pipeline == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "PIPELINE_NOT_CONFIGURED", "pipeline dependency is not configured", false, nil)
		return
	}

	var request insertRowsRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid insert rows request body", false, map[string]any{"details": err.Error()})
		return
	}

	report, err := deps.Pipeline.InsertRowsFromText(r.Context(), r.PathValue("table"), request.Description)
	if err != nil {
		writePipelineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func writePipelineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, pipeline.ErrEmptyInput):
		writeError(r.Context(), w, http.StatusBadRequest, "EMPTY_INPUT", err.Error(), false, nil)
	case errors.Is(err, storage.ErrUnknownTable):
		writeError(r.Context(), w, http.StatusNotFound, "TABLE_NOT_FOUND", "table does not exist", false, nil)
	case errors.Is(err, nlsql.ErrBackend):
		writeError(r.Context(), w, http.StatusBadGateway, "GENERATION_BACKEND_ERROR", err.Error(), true, nil)
	default:
		writeError(r.Context(), w, http.StatusInternalServerError, "PIPELINE_ERROR", err.Error(), true, nil)
	}
}
