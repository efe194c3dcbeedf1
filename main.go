package main

import (
	"context"
	"fmt"
	"os"
	"time"

	general_i "github.com/beka-birhanu/vinom-common/interfaces/general"
	logger "github.com/beka-birhanu/vinom-common/log"
	"github.com/beka-birhanu/vinom-labyrinth/api"
	gameapi "github.com/beka-birhanu/vinom-labyrinth/api/game"
	api_i "github.com/beka-birhanu/vinom-labyrinth/api/i"
	"github.com/beka-birhanu/vinom-labyrinth/api/identity"
	"github.com/beka-birhanu/vinom-labyrinth/config"
	"github.com/beka-birhanu/vinom-labyrinth/infrastruture/eventbus"
	"github.com/beka-birhanu/vinom-labyrinth/infrastruture/repo"
	"github.com/beka-birhanu/vinom-labyrinth/infrastruture/sortedstorage"
	"github.com/beka-birhanu/vinom-labyrinth/infrastruture/statestore"
	"github.com/beka-birhanu/vinom-labyrinth/infrastruture/token"
	"github.com/beka-birhanu/vinom-labyrinth/service"
	"github.com/beka-birhanu/vinom-labyrinth/service/i"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	storeMemory = "memory"
	storeRedis  = "redis"
)

// Global variables for dependencies
var (
	mongoClient           *mongo.Client
	redisClient           *redis.Client
	userRepo              *repo.UserRepo
	chatRepo              *repo.ChatRepo
	archiveRepo           *repo.GameArchiveRepo
	gateway               i.StateGateway
	sessions              i.SessionIndex
	eventBus              i.EventBus
	sortedQueue           i.SortedQueue
	matchmaker            *service.Matchmaker
	lobbyService          *service.LobbyService
	gameService           *service.GameService
	jwtTokenizer          i.Tokenizer
	authService           i.Authenticator
	authController        api_i.Controller
	matchmakingController api_i.Controller
	gameController        api_i.Controller
	router                *api.Router
	appLogger             general_i.Logger
)

// newLogger creates a component logger or exits.
func newLogger(prefix, color string) general_i.Logger {
	l, err := logger.New(prefix, color, os.Stdout)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating %s logger: %v", prefix, err))
		os.Exit(1)
	}
	return l
}

func initMongo(ctx context.Context) {
	uri := fmt.Sprintf("mongodb://%s:%s@%s:%v", config.Envs.DBUser, config.Envs.DBPassword, config.Envs.DBHost, config.Envs.DBPort)

	clientOptions := options.Client().ApplyURI(uri)
	var err error
	mongoClient, err = mongo.Connect(ctx, clientOptions)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Failed to connect to MongoDB: %v", err))
		os.Exit(1)
	}
	if err = mongoClient.Ping(ctx, nil); err != nil {
		appLogger.Error(fmt.Sprintf("MongoDB ping failed: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Connected to MongoDB")
}

func initRedis(ctx context.Context) {
	redisClient = redis.NewClient(&redis.Options{
		Addr:     config.Envs.RedisAddr,
		Password: config.Envs.RedisPassword,
		DB:       config.Envs.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		appLogger.Error(fmt.Sprintf("Redis ping failed: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Connected to Redis")
}

func initRepos(ctx context.Context) {
	userRepo = repo.NewUserRepo(mongoClient, config.Envs.DBName, "users")
	chatRepo = repo.NewChatRepo(mongoClient, config.Envs.DBName, "chat")
	archiveRepo = repo.NewGameArchiveRepo(mongoClient, config.Envs.DBName, "games")

	if err := userRepo.EnsureIndexes(ctx); err != nil {
		appLogger.Error(fmt.Sprintf("Creating user indexes: %v", err))
		os.Exit(1)
	}
	if err := chatRepo.EnsureIndexes(ctx); err != nil {
		appLogger.Error(fmt.Sprintf("Creating chat indexes: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Repositories initialized")
}

// initStateStore picks where live games and their events live. The memory
// store only serves a single API process.
func initStateStore() {
	storeLogger := newLogger("STATE-STORE", config.ColorBlue)

	switch config.Envs.StateStore {
	case storeMemory:
		store := statestore.NewMemoryStore()
		gateway, sessions = store, store
		eventBus = eventbus.NewBroadcaster()
	case storeRedis:
		store, err := statestore.NewRedisStore(statestore.RedisConfig{
			Client: redisClient,
			TTL:    time.Duration(config.Envs.GameTTLHours) * time.Hour,
			Logger: storeLogger,
		})
		if err != nil {
			appLogger.Error(fmt.Sprintf("Creating redis state store: %v", err))
			os.Exit(1)
		}
		gateway, sessions = store, store

		eventBus, err = eventbus.NewRedisBus(eventbus.RedisConfig{Client: redisClient, Logger: storeLogger})
		if err != nil {
			appLogger.Error(fmt.Sprintf("Creating redis event bus: %v", err))
			os.Exit(1)
		}
	default:
		appLogger.Error(fmt.Sprintf("Unknown STATE_STORE %q, want %q or %q", config.Envs.StateStore, storeMemory, storeRedis))
		os.Exit(1)
	}
	appLogger.Info(fmt.Sprintf("State store initialized (%s)", config.Envs.StateStore))
}

func initMatchmaker() {
	var err error
	sortedQueue, err = sortedstorage.NewRedisSortedQueue(redisClient, config.Envs.MatchQueueTTLSeconds)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating sorted queue: %v", err))
		os.Exit(1)
	}

	matchmaker, err = service.NewMatchmaker(sortedQueue, newLogger("MATCH-MAKER", config.ColorPurple), nil)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating matchmaker: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Matchmaker initialized")
}

func initLobbyService() {
	var err error
	lobbyService, err = service.NewLobbyService(&service.LobbyConfig{
		Gateway:       gateway,
		Sessions:      sessions,
		Matchmaker:    matchmaker,
		Logger:        newLogger("LOBBY", config.ColorYellow),
		MaxTxAttempts: config.Envs.MaxTxAttempts,
	})
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating lobby service: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Lobby service initialized")
}

func initGameService() {
	var err error
	gameService, err = service.NewGameService(&service.GameConfig{
		Gateway:       gateway,
		Sessions:      sessions,
		Chat:          chatRepo,
		Bus:           eventBus,
		Archive:       archiveRepo,
		Users:         userRepo,
		Logger:        newLogger("GAME", config.ColorCyan),
		MoveDelay:     time.Duration(config.Envs.MoveDelayMillis) * time.Millisecond,
		BattleTimeout: time.Duration(config.Envs.BattleTimeoutSeconds) * time.Second,
		MaxTxAttempts: config.Envs.MaxTxAttempts,
	})
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating game service: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Game service initialized")
}

func initJWTTokenizer() {
	jwtTokenizer = token.NewJwtService(config.Envs.JWTSecret, config.Envs.JWTIssuer)
	appLogger.Info("JWT Tokenizer initialized")
}

func initAuthService() {
	var err error
	authService, err = service.NewAuthService(userRepo, jwtTokenizer)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating auth service: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Auth service initialized")
}

func initControllers() {
	authController = identity.NewIdentityServer(authService)

	apiLogger := newLogger("API", config.ColorMagenta)
	var err error
	matchmakingController, err = gameapi.NewMatchMakingController(lobbyService, apiLogger, config.Envs.DebugMode)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating matchmaking controller: %v", err))
		os.Exit(1)
	}
	gameController, err = gameapi.NewGameController(gameapi.GameControllerConfig{
		Play:   gameService,
		Lobby:  lobbyService,
		Logger: apiLogger,
	})
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating game controller: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Controllers initialized")
}

func initRouter(t i.Tokenizer) {
	gin.SetMode(config.Envs.GinMode)
	router = api.NewRouter(api.Config{
		Addr:                    fmt.Sprintf("%s:%v", config.Envs.HostIP, config.Envs.RESTPort),
		BaseURL:                 "/api",
		Controllers:             []api_i.Controller{authController, matchmakingController, gameController},
		AuthorizationMiddleware: identity.Authoriz(t, config.Envs.DebugMode),
	})
	appLogger.Info("Router initialized")
}

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	appLogger, _ = logger.New("APP", config.ColorGreen, os.Stdout)

	initMongo(ctx)
	defer func() {
		_ = mongoClient.Disconnect(context.Background())
	}()
	initRedis(ctx)
	defer redisClient.Close()

	initRepos(ctx)
	initStateStore()
	initMatchmaker()
	initLobbyService()
	initGameService()
	defer gameService.Close()

	initJWTTokenizer()
	initAuthService()
	initControllers()
	initRouter(jwtTokenizer)

	if config.Envs.DebugMode {
		appLogger.Warning("Debug mode is on: X-Debug-Player overrides and debug games are enabled")
	}

	if err := router.Run(); err != nil {
		appLogger.Error(fmt.Sprintf("Starting server: %v", err))
		os.Exit(1)
	}
}
