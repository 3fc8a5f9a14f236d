package api

import (
	"net/http"

	"orbitcmd/pkg/store"
)

// TelemetryHandler serves the current trajectory state.
type TelemetryHandler struct {
	store store.TelemetryStore
}

// NewTelemetryHandler creates a telemetry handler reading from s.
func NewTelemetryHandler(s store.TelemetryStore) *TelemetryHandler {
	return &TelemetryHandler{store: s}
}

// HandleTelemetry returns the current persisted state. The store is the
// single source of truth; nothing is cached here.
// GET /api/telemetry
func (h *TelemetryHandler) HandleTelemetry(w http.ResponseWriter, r *http.Request) {
	tel, err := h.store.Telemetry(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tel)
}
