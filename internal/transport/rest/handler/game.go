package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/taucat/reaper/internal/service"
)

// GameHandler exposes read-only game state to the dashboard
type GameHandler struct {
	games *service.GameService
}

// NewGameHandler creates a new game handler
func NewGameHandler(games *service.GameService) *GameHandler {
	return &GameHandler{games: games}
}

// Leaderboard handles GET /v1/servers/{serverId}/leaderboard
func (h *GameHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	serverID := mux.Vars(r)["serverId"]

	view, err := h.games.Leaderboard(r.Context(), serverID, r.URL.Query().Get("playerId"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load leaderboard")
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// PlayerRank handles GET /v1/servers/{serverId}/players/{playerId}/rank
func (h *GameHandler) PlayerRank(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	rank, err := h.games.PlayerRank(r.Context(), vars["serverId"], vars["playerId"])
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load rank")
		return
	}
	if rank == -1 {
		writeError(w, http.StatusNotFound, "player has no ranked score")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"playerId": vars["playerId"],
		"rank":     rank,
	})
}

// Status handles GET /v1/servers/{serverId}/game
func (h *GameHandler) Status(w http.ResponseWriter, r *http.Request) {
	serverID := mux.Vars(r)["serverId"]

	game := h.games.ActiveGame(serverID)
	if game == nil {
		writeError(w, http.StatusNotFound, "no game is currently running")
		return
	}

	writeJSON(w, http.StatusOK, game)
}
