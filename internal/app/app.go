package app

import (
	"net/http"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/taucat/reaper/internal/cache"
	"github.com/taucat/reaper/internal/config"
	"github.com/taucat/reaper/internal/platform"
	"github.com/taucat/reaper/internal/repository"
	"github.com/taucat/reaper/internal/service"
	"github.com/taucat/reaper/internal/transport/command"
	"github.com/taucat/reaper/internal/transport/rest"
	"github.com/taucat/reaper/internal/transport/ws"
)

// App wires the whole service graph together.
type App struct {
	Store       repository.ScoreStore
	Leaderboard cache.LeaderboardCache
	AuthService *service.AuthService
	GameService *service.GameService
	Dispatcher  *command.Handler
	Hub         *ws.Hub
	Router      http.Handler
}

// New builds the application from its external connections.
func New(cfg *config.Config, db *mongo.Database, rdb *redis.Client, chat platform.Chat) *App {
	store := repository.NewScoreStore(db)
	leaderboard := cache.NewLeaderboardCache(rdb)

	authSvc := service.NewAuthService(cfg.DashboardUsername, cfg.DashboardPassword, cfg.JWTSecret)
	games := service.NewGameService(store, leaderboard, chat, clockwork.NewRealClock(), service.GameOptions{
		AdminRole:        cfg.AdminRole,
		ClearScoresOnEnd: cfg.ClearScoresOnEnd,
		LeaderboardSize:  cfg.LeaderboardSize,
	})

	hub := ws.NewHub()
	games.SetBroadcaster(hub)

	dispatcher := command.NewHandler(games, chat, cfg.ReaperChannel, cfg.AdminRole)

	router := rest.NewRouter(&rest.Container{
		AuthService:  authSvc,
		GameService:  games,
		Dispatcher:   dispatcher,
		GatewayToken: cfg.GatewayToken,
		WSHub:        hub,
	})

	return &App{
		Store:       store,
		Leaderboard: leaderboard,
		AuthService: authSvc,
		GameService: games,
		Dispatcher:  dispatcher,
		Hub:         hub,
		Router:      router,
	}
}
