package rest

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/taucat/reaper/internal/service"
	"github.com/taucat/reaper/internal/transport/command"
	"github.com/taucat/reaper/internal/transport/rest/handler"
	"github.com/taucat/reaper/internal/transport/rest/middleware"
	"github.com/taucat/reaper/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService  *service.AuthService
	GameService  *service.GameService
	Dispatcher   *command.Handler
	GatewayToken string
	WSHub        *ws.Hub
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	authHandler := handler.NewAuthHandler(c.AuthService)
	gameHandler := handler.NewGameHandler(c.GameService)
	commandHandler := handler.NewCommandHandler(c.Dispatcher, c.GatewayToken)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService)

	authMW := middleware.NewAuthMiddleware(c.AuthService)

	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Gateway webhook ingress (guarded by shared token, not JWT)
	v1.HandleFunc("/commands", commandHandler.Invoke).Methods("POST")

	// WebSocket spectator feed (token in query param)
	v1.HandleFunc("/ws/servers/{serverId}", wsHandler.ServerWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Dashboard routes (require admin auth)
	adminRoutes := v1.NewRoute().Subrouter()
	adminRoutes.Use(authMW.RequireAdmin)

	adminRoutes.HandleFunc("/servers/{serverId}/leaderboard", gameHandler.Leaderboard).Methods("GET")
	adminRoutes.HandleFunc("/servers/{serverId}/players/{playerId}/rank", gameHandler.PlayerRank).Methods("GET")
	adminRoutes.HandleFunc("/servers/{serverId}/game", gameHandler.Status).Methods("GET")

	return r
}
