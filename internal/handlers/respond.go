package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Petarainsoft/myroom-catalog/internal/catalog"
	"github.com/Petarainsoft/myroom-catalog/internal/storage"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// errStatus maps catalog sentinel errors to HTTP status codes. Anything
// unrecognized is an internal error.
func errStatus(err error) int {
	switch {
	case errors.Is(err, catalog.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, catalog.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, storage.ErrWriteFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeFailure logs and maps an operation failure onto the JSON error
// surface. Client-caused failures echo the error text; server-side
// failures get a generic message so internals never leak.
func writeFailure(w http.ResponseWriter, op string, err error) {
	status := errStatus(err)
	switch {
	case status == http.StatusServiceUnavailable:
		slog.Error(op+" failed", "error", err)
		writeError(w, "The catalog is temporarily unavailable.", status)
	case status == http.StatusBadGateway:
		slog.Error(op+" failed", "error", err)
		writeError(w, "Storing the file failed. Try again later.", status)
	case status >= 500:
		slog.Error(op+" failed", "error", err)
		writeError(w, "Internal Server Error", status)
	default:
		writeError(w, err.Error(), status)
	}
}
