package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/izposoja/internal/store"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// storeError maps a store/engine error kind to an HTTP response. Each kind
// gets a distinct status and message so callers can tell apart, e.g., an
// approval that lost the race for stock from one that was already decided.
func storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrItemNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrInvalidQuantity), errors.Is(err, store.ErrInvalidDate):
		jsonError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrInvalidTransition), errors.Is(err, store.ErrItemLeased):
		jsonError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrInsufficientStock):
		jsonError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrStoreUnavailable):
		jsonError(w, http.StatusServiceUnavailable, "storage temporarily unavailable, retry")
	case errors.Is(err, store.ErrDataCorruption):
		slog.Error("data corruption detected", "error", err)
		jsonError(w, http.StatusInternalServerError, "stock accounting inconsistency detected")
	default:
		slog.Error("internal error", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}
