package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"orbitcmd/pkg/burn"
	"orbitcmd/pkg/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

// writeDomainError maps scheduler and store errors onto the wire contract
// and returns the error code it chose.
func writeDomainError(w http.ResponseWriter, err error) string {
	switch {
	case errors.Is(err, burn.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return "invalid_input"
	case errors.Is(err, burn.ErrInvalidDuration):
		writeError(w, http.StatusBadRequest, "invalid_duration", err.Error())
		return "invalid_duration"
	case errors.Is(err, store.ErrUnavailable):
		writeError(w, http.StatusInternalServerError, "store_unavailable", err.Error())
		return "store_unavailable"
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return "internal_error"
	}
}
