package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the application's configuration values.
type Config struct {
	HostIP               string // Host IP for the server
	RESTPort             int    // Port for the REST API
	DBHost               string // Hostname or IP address for the database
	DBPort               int    // Port number for the database
	DBUser               string // Username for the database
	DBPassword           string // Password for the database
	DBName               string // Name of the database
	RedisAddr            string // host:port of the Redis server holding live games
	RedisPassword        string // Password for Redis, empty when auth is off
	RedisDB              int    // Redis logical database
	GinMode              string // Mode for the Gin framework (e.g., release, debug, test)
	JWTSecret            string // Secret key for JWT signing
	JWTIssuer            string // Issuer claim for JWTs
	DebugMode            bool   // Enables the X-Debug-Player override and debug lobbies
	MoveDelayMillis      int    // "In transit" delay before a move is committed
	BattleTimeoutSeconds int    // Time after which missing battle bets count as 0
	MaxTxAttempts        int    // Optimistic transaction attempts before giving up
	MatchQueueTTLSeconds int    // Expiry of idle matchmaking queues
	GameTTLHours         int    // Expiry of live game documents in Redis
	StateStore           string // "redis" for shared live games, "memory" for a single process
}

// Envs holds the application's configuration loaded from environment variables.
var Envs = initConfig()

// initConfig initializes and returns the application configuration.
// It loads environment variables from a .env file.
func initConfig() Config {
	// Load .env file if available
	if err := godotenv.Load(); err != nil {
		log.Printf("[APP] [INFO] .env file not found or could not be loaded: %v", err)
	}

	// Populate the Config struct with required environment variables
	return Config{
		DBHost:               mustGetEnv("DB_HOST"),
		DBPort:               mustGetEnvAsInt("DB_PORT"),
		DBUser:               mustGetEnv("DB_USER"),
		DBPassword:           mustGetEnv("DB_PASS"),
		DBName:               mustGetEnv("DB_NAME"),
		RedisAddr:            mustGetEnv("REDIS_ADDR"),
		RedisPassword:        getEnvWithDefault("REDIS_PASSWORD", ""),
		RedisDB:              getEnvAsIntWithDefault("REDIS_DB", 0),
		GinMode:              getEnvWithDefault("GIN_MODE", "release"),
		JWTSecret:            mustGetEnv("JWT_SECRET"),
		JWTIssuer:            mustGetEnv("JWT_ISSUER"),
		HostIP:               mustGetEnv("HOST_IP"),
		RESTPort:             mustGetEnvAsInt("REST_PORT"),
		DebugMode:            getEnvWithDefault("DEBUG_MODE", "false") == "true",
		MoveDelayMillis:      getEnvAsIntWithDefault("MOVE_DELAY_MILLIS", 2000),
		BattleTimeoutSeconds: getEnvAsIntWithDefault("BATTLE_TIMEOUT_SECONDS", 60),
		MaxTxAttempts:        getEnvAsIntWithDefault("MAX_TX_ATTEMPTS", 5),
		MatchQueueTTLSeconds: getEnvAsIntWithDefault("MATCH_QUEUE_TTL_SECONDS", 600),
		GameTTLHours:         getEnvAsIntWithDefault("GAME_TTL_HOURS", 24),
		StateStore:           getEnvWithDefault("STATE_STORE", "redis"),
	}
}

// mustGetEnv retrieves the value of an environment variable or logs a fatal error if not set.
func mustGetEnv(key string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		log.Fatalf("[APP] [FATAL] Environment variable %s is not set", key)
	}
	return value
}

// mustGetEnvAsInt retrieves the value of an environment variable as an integer or logs a fatal error if not set or cannot be parsed.
func mustGetEnvAsInt(key string) int {
	valueStr := mustGetEnv(key)
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Fatalf("[APP] [FATAL] Environment variable %s must be an integer: %v", key, err)
	}
	return value
}

// getEnvWithDefault retrieves the value of an environment variable or returns a default value if not set.
func getEnvWithDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsIntWithDefault(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Fatalf("[APP] [FATAL] Environment variable %s must be an integer: %v", key, err)
	}
	return value
}
