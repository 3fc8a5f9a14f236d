package api

import (
	"encoding/json"
	"net/http"

	"orbitcmd/internal/httputil"
	"orbitcmd/internal/metrics"
	"orbitcmd/pkg/burn"
	"orbitcmd/pkg/model"
)

// CommandHandler accepts burn commands.
type CommandHandler struct {
	sched      *burn.Scheduler
	limiter    *IPRateLimiter
	trustProxy bool
}

// NewCommandHandler creates a command handler. A nil limiter disables rate
// limiting.
func NewCommandHandler(sched *burn.Scheduler, limiter *IPRateLimiter, trustProxy bool) *CommandHandler {
	return &CommandHandler{
		sched:      sched,
		limiter:    limiter,
		trustProxy: trustProxy,
	}
}

type commandAck struct {
	Status    string           `json:"status"`
	CommandID string           `json:"command_id"`
	Telemetry *model.Telemetry `json:"telemetry"`
}

// HandleCommand validates and schedules a burn.
// POST /api/command
func (h *CommandHandler) HandleCommand(w http.ResponseWriter, r *http.Request) {
	if h.limiter != nil {
		ip := httputil.ClientIP(r, h.trustProxy)
		if !h.limiter.GetLimiter(ip).Allow() {
			metrics.IncCommandRejected("rate_limited")
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate_limited", "too many commands, slow down")
			return
		}
	}

	var req burn.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	if err := dec.Decode(&req); err != nil {
		metrics.IncCommandRejected("invalid_input")
		writeError(w, http.StatusBadRequest, "invalid_input", "request body must be JSON with numeric dvx, dvy and integer duration")
		return
	}

	tel, cmd, err := h.sched.Schedule(r.Context(), req)
	if err != nil {
		code := writeDomainError(w, err)
		metrics.IncCommandRejected(code)
		return
	}

	metrics.IncBurnScheduled()
	writeJSON(w, http.StatusOK, commandAck{
		Status:    "Burn scheduled",
		CommandID: cmd.ID,
		Telemetry: tel,
	})
}
