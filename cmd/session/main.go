package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	_ "github.com/johnquangdev/meeting-session/docs"
	"github.com/johnquangdev/meeting-session/internal/adapter/handler"
	"github.com/johnquangdev/meeting-session/internal/adapter/repository"
	"github.com/johnquangdev/meeting-session/internal/domain/gateways"
	"github.com/johnquangdev/meeting-session/internal/domain/repositories"
	"github.com/johnquangdev/meeting-session/internal/infrastructure/cache"
	"github.com/johnquangdev/meeting-session/internal/infrastructure/database"
	"github.com/johnquangdev/meeting-session/internal/infrastructure/external/host"
	"github.com/johnquangdev/meeting-session/internal/infrastructure/external/livekit"
	"github.com/johnquangdev/meeting-session/internal/infrastructure/platform"
	"github.com/johnquangdev/meeting-session/internal/infrastructure/storage"
	"github.com/johnquangdev/meeting-session/internal/usecase/recorder"
	"github.com/johnquangdev/meeting-session/internal/usecase/session"
	pkgai "github.com/johnquangdev/meeting-session/pkg/ai"
	"github.com/johnquangdev/meeting-session/pkg/config"
	"github.com/johnquangdev/meeting-session/pkg/jwt"
	"github.com/johnquangdev/meeting-session/pkg/retry"
	pkgvalidator "github.com/johnquangdev/meeting-session/pkg/validator"
)

// @title           Meeting Session API
// @version         1.0
// @description     Control API of a live meeting session: devices, media, screen share, timeline and meeting records

// @contact.name   API Support

// @BasePath  /v1

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	// Initialize Echo instance
	e := echo.New()
	e.Validator = pkgvalidator.New()
	e.HideBanner = true
	e.HidePort = false

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	log.Println("🔧 Initializing dependencies...")

	// Database
	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	if cfg.Database.AutoMigrate {
		log.Println("🔄 Applying embedded migrations...")
		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	} else {
		log.Println("🔄 Skipping migrations; run cmd/migrate up to apply them")
	}

	// Device preference store
	var store cache.Store
	if cfg.Redis.Host != "" {
		log.Println("📦 Connecting to Redis...")
		redisStore, err := cache.NewRedisStore(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		store = redisStore
	} else {
		log.Println("⚠️  REDIS_HOST not set, device preferences are kept in memory")
		store = cache.NewMemoryStore()
	}
	defer store.Close()

	// Repositories
	log.Println("⚙️  Initializing repositories...")
	var records repositories.MeetingRecordRepository = repository.NewMeetingRecordRepository(db)
	var archive handler.ArchiveLinker
	if cfg.Storage.Endpoint != "" {
		log.Println("🗄️  Connecting to object storage...")
		minioClient, err := storage.NewMinIOClient(ctx, &cfg.Storage)
		if err != nil {
			log.Fatalf("Failed to connect to object storage: %v", err)
		}
		archived := repository.NewArchivingRecordRepository(records, minioClient, logger)
		records = archived
		archive = archived
	}
	preferences := repository.NewDevicePreferenceRepository(store, cfg.Redis.TTL)

	// Summaries
	var summarizer gateways.Summarizer = gateways.NoopSummarizer{}
	if cfg.Groq.APIKey != "" {
		log.Println("🤖 Initializing Groq summarizer...")
		summarizer = pkgai.NewSummarizer(pkgai.NewGroqClient(&cfg.Groq), logger)
	} else {
		log.Println("⚠️  GROQ_API_KEY not set, meeting records are stored without a summary")
	}

	policy := retry.DefaultPolicy()
	policy.MaxAttempts = cfg.Session.RetryMaxAttempts
	rec := recorder.NewRecorder(records, summarizer, policy, logger)

	// LiveKit
	log.Println("🎥 Joining LiveKit room...")
	transport, err := joinRoom(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to join room: %v", err)
	}

	// Host bridge is optional, the native share prompt is used without it
	var hostBridge gateways.HostBridge
	if cfg.Host.URL != "" {
		log.Println("🪟 Connecting to host bridge...")
		tokens := jwt.NewManager(cfg.Host.Secret, 5*time.Minute)
		bridge, err := host.Dial(ctx, cfg.Host, tokens, cfg.Session.UserID, cfg.LiveKit.Room, logger)
		if err != nil {
			logger.Warn("⚠️ host bridge unavailable, falling back to the native share prompt", zap.Error(err))
		} else {
			defer bridge.Close()
			hostBridge = bridge
		}
	}

	controller := session.NewController(session.Config{
		UserID:              cfg.Session.UserID,
		DisplayName:         cfg.Session.DisplayName,
		LanguageTag:         cfg.Session.LanguageTag,
		Title:               cfg.Session.Title,
		RoomName:            cfg.LiveKit.Room,
		StartWithMicrophone: cfg.Session.StartWithMicrophone,
		StartWithCamera:     cfg.Session.StartWithCamera,
		CallTimeout:         cfg.Session.CallTimeout,
		RecordTimeout:       cfg.Session.RecordTimeout,
	}, session.Deps{
		Transport:   transport,
		Host:        hostBridge,
		Platform:    platform.NewLinux(cfg.Session.DevRoot, logger),
		Recorder:    rec,
		Preferences: preferences,
	}, logger)

	go func() {
		if err := controller.Run(ctx); err != nil {
			logger.Error("❌ Session loop failed", zap.Error(err))
		}
	}()

	// Notices are also listed in GET /v1/session
	go func() {
		for n := range controller.Notices() {
			logger.Debug("notice delivered", zap.String("level", string(n.Level)), zap.Error(n.Err))
		}
	}()

	// Routes
	log.Println("🛣️  Setting up routes...")
	router := handler.NewRouter(cfg,
		handler.NewSessionHandler(controller, logger),
		handler.NewRecordHandler(records, archive, logger),
	)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/health", addr)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown. The server keeps running after the session ended so
	// the record stays reachable and a pending record can be retried.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case <-controller.Done():
		log.Println("✅ Session ended, serving records until shutdown")
		<-quit
	case <-quit:
	}

	log.Println("🛑 Shutting down...")

	endCtx, cancelEnd := context.WithTimeout(context.Background(), cfg.Session.RecordTimeout+cfg.Session.CallTimeout)
	if record, err := controller.End(endCtx); err != nil {
		logger.Error("❌ Meeting record not stored", zap.Error(err))
	} else if record != nil {
		logger.Info("✅ Meeting record stored", zap.String("record_id", record.ID.String()))
	}
	cancelEnd()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// joinRoom makes sure the room exists, mints a token for the local user,
// dispatches the transcriber agent when configured and connects.
func joinRoom(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*livekit.Transport, error) {
	client := livekit.NewClient(cfg.LiveKit)

	room, err := client.EnsureRoom(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("✅ LiveKit room ready",
		zap.String("room", room.Name),
		zap.String("sid", room.SID),
		zap.Uint32("participants", room.NumParticipants),
	)

	metadata, err := json.Marshal(map[string]string{"language": cfg.Session.LanguageTag})
	if err != nil {
		return nil, err
	}

	token, err := client.JoinToken(cfg.Session.UserID, cfg.Session.DisplayName, string(metadata))
	if err != nil {
		return nil, err
	}

	if cfg.LiveKit.AgentName != "" {
		dispatchID, err := client.DispatchAgent(ctx, string(metadata))
		if err != nil {
			logger.Warn("⚠️ agent dispatch failed", zap.String("agent", cfg.LiveKit.AgentName), zap.Error(err))
		} else {
			logger.Info("🤖 agent dispatched", zap.String("agent", cfg.LiveKit.AgentName), zap.String("dispatch_id", dispatchID))
		}
	}

	return livekit.Connect(cfg.LiveKit.URL, token, livekit.NopCapturer{}, logger)
}
