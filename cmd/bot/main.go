package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/johnquangdev/meeting-capture/pkg/validator"

	"github.com/johnquangdev/meeting-capture/internal/adapter/handler"
	"github.com/johnquangdev/meeting-capture/internal/adapter/repository"
	"github.com/johnquangdev/meeting-capture/internal/domain/repositories"
	"github.com/johnquangdev/meeting-capture/internal/infrastructure/cache"
	"github.com/johnquangdev/meeting-capture/internal/infrastructure/database"
	"github.com/johnquangdev/meeting-capture/internal/infrastructure/external/browser"
	"github.com/johnquangdev/meeting-capture/internal/infrastructure/recorder"
	"github.com/johnquangdev/meeting-capture/internal/infrastructure/storage"
	"github.com/johnquangdev/meeting-capture/internal/usecase/capture"
	"github.com/johnquangdev/meeting-capture/internal/usecase/dispatch"
	"github.com/johnquangdev/meeting-capture/internal/usecase/postprocess"
	"github.com/johnquangdev/meeting-capture/internal/usecase/session"
	"github.com/johnquangdev/meeting-capture/pkg/config"
	"github.com/johnquangdev/meeting-capture/pkg/transcribe"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	var logger *zap.Logger
	if cfg.Server.Environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Database
	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	if cfg.Database.AutoMigrate {
		log.Println("🔄 Running schema migrations...")
		if err := database.Migrate(db); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	} else {
		log.Println("🔄 Skipping schema migrations; run sql-migrate in CI/CD/production")
	}

	// Initialize status store: Redis when enabled, in-memory otherwise
	var statusStore repositories.StatusStore
	if cfg.Redis.Enabled {
		log.Println("📦 Connecting to Redis...")
		redisClient, err := cache.NewRedisClient(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		statusStore = cache.NewRedisStatusStore(redisClient)
	} else {
		log.Println("📦 Using in-memory status store")
		statusStore = cache.NewMemoryStatusStore()
	}

	// Initialize repositories
	meetingRepo := repository.NewMeetingRepository(db)
	screenshotRepo := repository.NewScreenshotRepository(db)

	// Initialize object storage
	var minioClient *storage.MinIOClient
	if cfg.Storage.Enabled {
		log.Println("🗄️  Connecting to object storage...")
		minioClient, err = storage.NewMinIOClient(&cfg.Storage)
		if err != nil {
			log.Fatalf("Failed to connect to object storage: %v", err)
		}
	}
	var uploader dispatch.ArtifactUploader
	if minioClient != nil {
		uploader = minioClient
	}

	// Initialize capture orchestrator
	log.Println("🤖 Initializing capture orchestrator...")
	orchestrator := dispatch.NewOrchestrator(
		meetingRepo,
		screenshotRepo,
		statusStore,
		func() (session.Agent, error) {
			return browser.NewChromeAgent(cfg.Agent, logger), nil
		},
		func(meetingID string, startedAt time.Time) capture.Recorder {
			outputPath := recorder.RecordingPath(cfg.Capture.RecordingsDir, meetingID, startedAt)
			return recorder.NewFFmpegRecorder(cfg.Capture.AudioDevice, outputPath, logger)
		},
		uploader,
		dispatch.Config{
			Driver: session.Config{
				PageLoadRetries:  cfg.Agent.PageLoadRetries,
				PageLoadBackoff:  cfg.Agent.PageLoadBackoff,
				NameFieldTimeout: cfg.Agent.NameFieldTimeout,
				ControlTimeout:   cfg.Agent.ControlTimeout,
				EndPollInterval:  cfg.Agent.EndPollInterval,
			},
			ScreenshotsDir:     cfg.Capture.ScreenshotsDir,
			SnapshotInterval:   cfg.Capture.SnapshotInterval,
			StopTimeout:        cfg.Capture.StopTimeout,
			RetryOnJoinFailure: cfg.Scheduler.RetryOnJoinFailure,
		},
		logger,
	)

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// Start dispatch scheduler
	scheduler := dispatch.NewScheduler(meetingRepo, orchestrator, dispatch.SchedulerConfig{
		TickInterval:       cfg.Scheduler.TickInterval,
		LateWindow:         cfg.Scheduler.LateWindow,
		EarlyWindow:        cfg.Scheduler.EarlyWindow,
		MaxConcurrentTicks: cfg.Scheduler.MaxConcurrentTicks,
		DispatchTimeout:    cfg.Scheduler.DispatchTimeout,
	}, logger)
	scheduler.Start(rootCtx)

	// Start transcription hand-off worker
	var handoff *postprocess.Service
	if cfg.Transcription.Enabled {
		log.Println("📤 Starting transcription hand-off worker...")
		handoff = postprocess.NewService(
			meetingRepo,
			transcribe.NewAssemblyAIClient(&cfg.Transcription),
			minioClient,
			postprocess.Config{
				PollInterval: cfg.Transcription.PollInterval,
			},
			logger,
		)
		handoff.Start(rootCtx)
	}

	// Initialize the status API
	e := echo.New()
	e.Validator = pkgvalidator.New()
	e.HideBanner = true

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))
	e.Use(middleware.Recover())

	meetingHandler := handler.NewMeetingHandler(meetingRepo, screenshotRepo, statusStore, logger)
	router := handler.NewRouter(cfg, meetingHandler)
	router.Setup(e)

	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting status API on %s", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown: stop taking new dispatches, let running sessions
	// observe the cancellation and tear themselves down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down...")

	rootCancel()
	scheduler.Stop()
	if handoff != nil {
		handoff.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Stopped gracefully")
}
