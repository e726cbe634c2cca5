// Package httpapi exposes the HTTP API layer of the service.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fairyhunter13/inventory-service/internal/inventory"
	"github.com/fairyhunter13/inventory-service/internal/obs"
)

// jsonError represents a JSON error payload.
type jsonError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// WriteJSONError writes a JSON error payload with the given status code.
func WriteJSONError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, jsonError{Error: message, Details: details})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError maps an inventory error onto a response. conflictStatus
// differs between create (400) and rename on update (409).
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, conflictStatus int) {
	switch {
	case errors.Is(err, inventory.ErrValidation):
		WriteJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, inventory.ErrConflict):
		WriteJSONError(w, conflictStatus, "conflict", err.Error())
	case errors.Is(err, inventory.ErrNotFound):
		WriteJSONError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		obs.Logger.Error("request_failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", RequestIDFromContext(r.Context()),
			"error", err,
		)
		WriteJSONError(w, http.StatusInternalServerError, "internal_error", "")
	}
}
