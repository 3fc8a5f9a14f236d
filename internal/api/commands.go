package api

import (
	"net/http"
	"strconv"

	"orbitcmd/pkg/model"
	"orbitcmd/pkg/store"
)

// CommandsHandler serves the accepted-burn history.
type CommandsHandler struct {
	store        store.CommandStore
	defaultLimit int
}

func NewCommandsHandler(s store.CommandStore, defaultLimit int) *CommandsHandler {
	if defaultLimit < 1 {
		defaultLimit = 50
	}
	return &CommandsHandler{store: s, defaultLimit: defaultLimit}
}

// HandleCommands returns recent commands, newest first.
// GET /api/commands?limit=N
func (h *CommandsHandler) HandleCommands(w http.ResponseWriter, r *http.Request) {
	limit := h.defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			writeError(w, http.StatusBadRequest, "invalid_input", "limit must be an integer between 1 and 500")
			return
		}
		limit = n
	}

	cmds, err := h.store.RecentCommands(r.Context(), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if cmds == nil {
		cmds = []*model.Command{}
	}
	writeJSON(w, http.StatusOK, cmds)
}
