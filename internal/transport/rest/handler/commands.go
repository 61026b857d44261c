package handler

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/taucat/reaper/internal/platform"
	"github.com/taucat/reaper/internal/transport/command"
)

// CommandHandler is the webhook ingress for the bot gateway: the
// gateway authenticates chat users, resolves their roles, and forwards
// each slash command here as one Invocation.
type CommandHandler struct {
	dispatcher   *command.Handler
	gatewayToken string
}

// NewCommandHandler creates a new command webhook handler
func NewCommandHandler(dispatcher *command.Handler, gatewayToken string) *CommandHandler {
	return &CommandHandler{
		dispatcher:   dispatcher,
		gatewayToken: gatewayToken,
	}
}

// Invoke handles POST /v1/commands
func (h *CommandHandler) Invoke(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Gateway-Token")
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.gatewayToken)) != 1 {
		writeError(w, http.StatusUnauthorized, "invalid gateway token")
		return
	}

	var inv platform.Invocation
	if err := json.NewDecoder(r.Body).Decode(&inv); err != nil {
		writeError(w, http.StatusBadRequest, "invalid invocation body")
		return
	}
	if inv.Command == "" || inv.ServerID == "" || inv.Caller.ID == "" {
		writeError(w, http.StatusBadRequest, "command, serverId and caller.id are required")
		return
	}

	reply := h.dispatcher.Dispatch(r.Context(), inv)
	writeJSON(w, http.StatusOK, reply)
}
