package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/chatdb/chatdb/internal/storage"
)

// Object handlers manage staged ingest sources: a client uploads a CSV or
// Parquet file once, then ingests it by key via POST /v1/ingest/{table}.

func handleUploadObject(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	key, ok := objectKey(deps, w, r)
	if !ok {
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxIngestBodyBytes)
	defer func() { _ = body.Close() }()

	opts := storage.PutOptions{ContentType: r.Header.Get("Content-Type")}
	info, err := deps.ObjectStore.Put(r.Context(), key, body, r.ContentLength, opts)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadGateway, "OBJECT_STORE_ERROR", err.Error(), true, nil)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

func handleStatObject(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	key, ok := objectKey(deps, w, r)
	if !ok {
		return
	}

	info, err := deps.ObjectStore.Stat(r.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			writeError(r.Context(), w, http.StatusNotFound, "OBJECT_NOT_FOUND", "object does not exist", false, nil)
			return
		}
		writeError(r.Context(), w, http.StatusBadGateway, "OBJECT_STORE_ERROR", err.Error(), true, nil)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func handleDeleteObject(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	key, ok := objectKey(deps, w, r)
	if !ok {
		return
	}

	if err := deps.ObjectStore.Delete(r.Context(), key); err != nil {
		writeError(r.Context(), w, http.StatusBadGateway, "OBJECT_STORE_ERROR", err.Error(), true, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func objectKey(deps Dependencies, w http.ResponseWriter, r *http.Request) (string, bool) {
	if deps.ObjectStore == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "OBJECT_STORE_NOT_CONFIGURED", "object store dependency is not configured", false, nil)
		return "", false
	}
	key := strings.TrimSpace(r.PathValue("key"))
	if key == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "OBJECT_KEY_REQUIRED", "object key path parameter is required", false, nil)
		return "", false
	}
	return key, true
}
