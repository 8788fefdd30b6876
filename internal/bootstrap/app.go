package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	httpHandler "github.com/ytchou/focus-squad-sub000/internal/handler/http"
	wsHandler "github.com/ytchou/focus-squad-sub000/internal/handler/websocket"
	gormpersistence "github.com/ytchou/focus-squad-sub000/internal/infra/persistence/gorm"
	"github.com/ytchou/focus-squad-sub000/internal/infra/setup"
	redisstate "github.com/ytchou/focus-squad-sub000/internal/infra/state/redis"
	"github.com/ytchou/focus-squad-sub000/internal/middleware"
	"github.com/ytchou/focus-squad-sub000/internal/rtc"
	"github.com/ytchou/focus-squad-sub000/internal/scheduler"
	"github.com/ytchou/focus-squad-sub000/internal/service"
	"github.com/ytchou/focus-squad-sub000/internal/tasks"
	"github.com/ytchou/focus-squad-sub000/internal/worker"
)

// Config holds everything loaded from the environment.
type Config struct {
	DBUser          string
	DBPassword      string
	DBHost          string
	DBPort          string
	DBName          string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	JWTSecret       string
	ServerPort      string
	LogLevel        string
	RateLimitMax    int
	RateLimitWindow time.Duration
	AppEnv          string
	KeyPrefix       string

	// Room provider credentials. When RoomProviderURL is empty the app
	// runs with the dev placeholder provider and locally-signed tokens.
	RoomProviderURL string
	RoomAPIKey      string
	RoomAPISecret   string

	// Cron-style spec for the phase sweep.
	PhaseSweepSpec string
}

// LoadConfig loads configuration from the environment, with .env as a
// convenience for local development.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // environment variables alone are fine

	cfg := &Config{
		DBUser:          os.Getenv("DB_USER"),
		DBPassword:      os.Getenv("DB_PASSWORD"),
		DBHost:          os.Getenv("DB_HOST"),
		DBPort:          os.Getenv("DB_PORT"),
		DBName:          os.Getenv("DB_NAME"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		ServerPort:      os.Getenv("SERVER_PORT"),
		LogLevel:        os.Getenv("LOG_LEVEL"),
		AppEnv:          os.Getenv("APP_ENV"),
		KeyPrefix:       os.Getenv("REDIS_KEY_PREFIX"),
		RoomProviderURL: os.Getenv("ROOM_PROVIDER_URL"),
		RoomAPIKey:      os.Getenv("ROOM_PROVIDER_API_KEY"),
		RoomAPISecret:   os.Getenv("ROOM_PROVIDER_API_SECRET"),
		RateLimitMax:    100,
		RateLimitWindow: 1 * time.Second,
		PhaseSweepSpec:  "@every 30s",
	}

	redisDBStr := os.Getenv("REDIS_DB")
	cfg.RedisDB, _ = strconv.Atoi(redisDBStr) // defaults to 0

	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "ft:"
	}
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("environment variable REDIS_ADDR must be set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("environment variable JWT_SECRET must be set")
	}
	if cfg.RoomProviderURL != "" && (cfg.RoomAPIKey == "" || cfg.RoomAPISecret == "") {
		return nil, fmt.Errorf("ROOM_PROVIDER_API_KEY and ROOM_PROVIDER_API_SECRET must be set when ROOM_PROVIDER_URL is")
	}
	if cfg.AppEnv == "production" && cfg.RoomProviderURL == "" {
		return nil, fmt.Errorf("ROOM_PROVIDER_URL must be set in production")
	}

	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		logrus.Warnf("Invalid LOG_LEVEL '%s', using default 'info'", cfg.LogLevel)
		cfg.LogLevel = "info"
	}

	return cfg, nil
}

// App wires every component together and owns their lifecycle.
type App struct {
	Config       *Config
	Log          *logrus.Logger
	DB           *gorm.DB
	RedisClient  *redis.Client
	Scheduler    *scheduler.AsynqScheduler
	WorkerServer *worker.WorkerServer
	HttpServer   *http.Server
}

// NewApp creates and initializes all application components.
func NewApp() (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return nil, err
	}

	log := logrus.New()
	if cfg.AppEnv == "production" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, ForceColors: true})
	}
	logLevel, _ := logrus.ParseLevel(cfg.LogLevel) // validated in LoadConfig
	log.SetLevel(logLevel)
	log.SetOutput(os.Stdout)
	logrus.SetFormatter(log.Formatter)
	logrus.SetLevel(logLevel)
	log.Infof("Logger initialized (Level: %s)", logLevel.String())

	log.Info("Initializing infrastructure...")
	db, err := setup.InitDB(cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to init DB: %w", err)
	}
	if err := setup.MigrateDB(db); err != nil {
		return nil, fmt.Errorf("failed to migrate DB: %w", err)
	}
	log.Info("Database initialized and migrated")

	redisClient, err := setup.InitRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}
	log.Info("Redis client initialized")

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	sched := scheduler.NewAsynqScheduler(redisOpt, log)
	log.Info("Job scheduler initialized")

	log.Info("Initializing repositories...")
	sessionRepo := gormpersistence.NewGormSessionRepository(db)
	participantRepo := gormpersistence.NewGormParticipantRepository(db)
	invitationRepo := gormpersistence.NewGormInvitationRepository(db)
	ledger := gormpersistence.NewGormCreditLedger(db)
	profileRepo := gormpersistence.NewGormProfileRepository(db)
	stateRepo := redisstate.NewRedisStateRepository(redisClient, cfg.KeyPrefix)
	log.Info("Repositories initialized")

	log.Info("Initializing services...")
	var provider rtc.Provider
	if cfg.RoomProviderURL != "" {
		provider = rtc.NewHTTPProvider(cfg.RoomProviderURL, cfg.RoomAPIKey, cfg.RoomAPISecret)
	} else {
		log.Warn("ROOM_PROVIDER_URL not set, using dev placeholder room provider")
		provider = rtc.NewPlaceholderProvider()
	}
	apiKey, apiSecret := cfg.RoomAPIKey, cfg.RoomAPISecret
	if apiKey == "" {
		apiKey, apiSecret = "dev-key", "dev-secret"
	}
	minter := rtc.NewTokenMinter(apiKey, apiSecret)

	roomService := service.NewRoomService(provider, minter, sessionRepo)
	matchService := service.NewMatchService(sessionRepo, participantRepo, stateRepo, ledger, sched, roomService)
	slotService := service.NewSlotService(sessionRepo, stateRepo)
	fillerService := service.NewSeatFillerService(sessionRepo, participantRepo)
	phaseService := service.NewPhaseService(sessionRepo, participantRepo, profileRepo, ledger, sched)
	invitationService := service.NewInvitationService(invitationRepo, sessionRepo, profileRepo, matchService)
	log.Info("Services initialized")

	log.Info("Initializing handlers...")
	matchHandler := httpHandler.NewMatchHandler(matchService)
	slotHandler := httpHandler.NewSlotHandler(slotService)
	invitationHandler := httpHandler.NewInvitationHandler(invitationService)
	presenceHandler := wsHandler.NewPresenceHandler(matchService)
	log.Info("Handlers initialized")

	workerServer := worker.NewWorkerServer(redisOpt, roomService, fillerService, phaseService, matchService, log)
	log.Info("Worker server initialized")

	log.Info("Setting up router...")
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(log))
	router.Use(middleware.RateLimit(redisClient, cfg.RateLimitMax, cfg.RateLimitWindow))

	api := router.Group("/api").Use(middleware.Auth(cfg.JWTSecret))
	{
		api.GET("/slots", slotHandler.NextSlots)
		api.POST("/match/quick", matchHandler.QuickMatch)
		api.POST("/match/leave", matchHandler.Leave)
		api.POST("/match/cancel", matchHandler.Cancel)
		api.POST("/match/rejoin", matchHandler.Rejoin)
		api.POST("/sessions/private", invitationHandler.CreatePrivate)
		api.POST("/invitations", invitationHandler.Invite)
		api.POST("/invitations/respond", invitationHandler.Respond)
		api.GET("/invitations/pending", invitationHandler.ListPending)
	}
	wsRoutes := router.Group("/ws").Use(middleware.Auth(cfg.JWTSecret))
	{
		wsRoutes.GET("/sessions/:sessionId", presenceHandler.HandleConnection)
	}
	router.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })
	log.Info("Router setup complete")

	httpServer := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	app := &App{
		Config:       cfg,
		Log:          log,
		DB:           db,
		RedisClient:  redisClient,
		Scheduler:    sched,
		WorkerServer: workerServer,
		HttpServer:   httpServer,
	}
	log.Info("Application assembled successfully")
	return app, nil
}

// Start launches the worker server, the periodic phase sweep, and the
// HTTP server.
func (a *App) Start() {
	a.Log.Info("Starting application background routines...")

	go a.WorkerServer.Start()
	a.Log.Info("Worker server routine started")

	a.registerPeriodicTasks()
	go a.Scheduler.Start()
	a.Log.Info("Job scheduler routine started")

	go func() {
		a.Log.Infof("HTTP server listening on %s", a.HttpServer.Addr)
		if err := a.HttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Fatalf("Failed to start HTTP server: %v", err)
		}
		a.Log.Info("HTTP server stopped listening.")
	}()
}

func (a *App) registerPeriodicTasks() {
	payload, err := tasks.NewPhaseSweepPayload()
	if err != nil {
		a.Log.Errorf("Failed to create phase sweep payload: %v", err)
		return
	}
	if err := a.Scheduler.RunEvery(a.Config.PhaseSweepSpec, tasks.TypePhaseSweep, payload); err != nil {
		a.Log.Errorf("Could not register periodic phase sweep: %v", err)
		return
	}
	a.Log.Infof("Periodic phase sweep registered with schedule '%s'", a.Config.PhaseSweepSpec)
}

// Shutdown stops components in dependency order.
func (a *App) Shutdown() {
	a.Log.Info("Shutting down application...")

	if a.Scheduler != nil {
		a.Scheduler.Shutdown()
	}
	if a.WorkerServer != nil {
		a.WorkerServer.Shutdown()
	}

	a.Log.Info("Shutting down HTTP server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.HttpServer.Shutdown(ctx); err != nil {
		a.Log.Errorf("Error shutting down HTTP server: %v", err)
	} else {
		a.Log.Info("HTTP server shut down gracefully.")
	}

	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Log.Errorf("Error closing Redis connection: %v", err)
		} else {
			a.Log.Info("Redis connection closed.")
		}
	}

	a.Log.Info("Application shutdown complete.")
}

// LoggerMiddleware logs one line per handled request.
func LoggerMiddleware(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()
		latency := time.Since(startTime)
		statusCode := c.Writer.Status()
		path := c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			path = path + "?" + c.Request.URL.RawQuery
		}
		errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String()

		entry := log.WithFields(logrus.Fields{
			"status_code": statusCode,
			"latency_ms":  latency.Milliseconds(),
			"client_ip":   c.ClientIP(),
			"method":      c.Request.Method,
			"path":        path,
		})

		if errorMessage != "" {
			entry.Error(errorMessage)
		} else if statusCode >= 500 {
			entry.Error("Server error")
		} else if statusCode >= 400 {
			entry.Warn("Client error")
		} else {
			entry.Info("Request handled")
		}
	}
}
