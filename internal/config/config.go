package config

import (
	"os"
	"strconv"
)

// Config is the full runtime configuration, loaded from the
// environment with sensible development defaults.
type Config struct {
	MongoURI  string
	MongoDB   string
	RedisAddr string
	HTTPPort  string

	// Gateway is the bot-gateway sidecar that owns the chat-platform
	// connection.
	GatewayURL   string
	GatewayToken string

	// ReaperChannel is the only channel game commands are accepted in.
	ReaperChannel string
	// AdminRole is required to start or end games.
	AdminRole string
	// ClearScoresOnEnd wipes scores when an admin ends a game. Scores
	// are always wiped on a win.
	ClearScoresOnEnd bool
	LeaderboardSize  int

	DashboardUsername string
	DashboardPassword string
	JWTSecret         string
}

func Load() *Config {
	return &Config{
		MongoURI:  getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:   getEnv("MONGO_DB", "reaper"),
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		HTTPPort:  getEnv("PORT", "8080"),

		GatewayURL:   getEnv("GATEWAY_URL", "http://localhost:9090/api"),
		GatewayToken: getEnv("GATEWAY_TOKEN", ""),

		ReaperChannel:    getEnv("REAPER_CHANNEL", "tau-reaper"),
		AdminRole:        getEnv("ADMIN_ROLE", "taucater"),
		ClearScoresOnEnd: getEnvBool("CLEAR_SCORES_ON_END", false),
		LeaderboardSize:  getEnvInt("LEADERBOARD_SIZE", 10),

		DashboardUsername: getEnv("DASHBOARD_USERNAME", "admin"),
		DashboardPassword: getEnv("DASHBOARD_PASSWORD", "password123"),
		JWTSecret:         getEnv("JWT_SECRET", "super-secret-key-change-in-production"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
