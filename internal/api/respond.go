package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"travel-planner/internal/store"
)

// errorResponse is the body for every non-2xx outcome except the status
// endpoint's 404, which returns a bare null.
type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}

func writeFieldError(w http.ResponseWriter, msg, field string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg, Field: field})
}

// writeStoreError converts persistence failures into the fixed outcome set:
// 404 for absent-or-unowned rows, 503 for retryable infrastructure faults,
// and a generic 500 for everything else. Internal detail is logged at the
// boundary, never returned.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrTransient):
		log.Printf("transient store error: %v", err)
		writeError(w, http.StatusServiceUnavailable, "temporarily unavailable, please retry")
	default:
		log.Printf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
