package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/commonapply/verification-backend/config"
	"github.com/commonapply/verification-backend/internal/app/controller"
	"github.com/commonapply/verification-backend/internal/app/repository"
	"github.com/commonapply/verification-backend/internal/app/service"
	"github.com/commonapply/verification-backend/internal/db"
	"github.com/commonapply/verification-backend/internal/lock"
	"github.com/commonapply/verification-backend/internal/mailer"
	"github.com/commonapply/verification-backend/internal/middleware"
	"github.com/commonapply/verification-backend/internal/notifier"
	"github.com/commonapply/verification-backend/internal/router"
	"github.com/commonapply/verification-backend/internal/scheduler"
	"github.com/commonapply/verification-backend/internal/storage"
	"github.com/commonapply/verification-backend/internal/websocket"
	"github.com/commonapply/verification-backend/pkg/logger"
	"github.com/commonapply/verification-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: true,
	})

	logger.Info("Starting CommonApply verification server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Seed database (optional)
	if err := db.Seed(); err != nil {
		logger.Warn("Failed to seed database", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Per-request lock: Redis when enabled, in-process otherwise
	var locker lock.Locker = lock.NewKeyedMutex()
	if cfg.Redis.Enabled {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Fatal("Failed to initialize Redis", err)
		}
		defer redis.Close()
		locker = redis.NewLocker(redis.GetClient(), cfg.Redis.LockTTL)
	}

	repos := repository.NewRepositories(db.GetDB())

	// Delivery sinks
	hub := websocket.NewHub()
	go hub.Run()

	sinks := []notifier.Sink{notifier.NewHubSink(hub)}
	if cfg.Mail.Enabled {
		sesClient, err := mailer.NewSESClient(context.Background(), cfg.Mail.Region)
		if err != nil {
			logger.Fatal("Failed to initialize SES client", err)
		}
		sinks = append(sinks, mailer.NewSESMailer(sesClient, repos.Users, cfg.Mail))
		logger.Info("Email notifications enabled", map[string]interface{}{
			"region": cfg.Mail.Region,
			"sender": cfg.Mail.Sender,
		})
	}

	dispatcher := notifier.NewDispatcher(notifier.Config{
		Workers:     cfg.Notifier.Workers,
		QueueSize:   cfg.Notifier.QueueSize,
		MaxAttempts: cfg.Notifier.MaxAttempts,
		BaseBackoff: cfg.Notifier.BaseBackoff,
	}, sinks...)
	dispatcher.Start(context.Background())

	s3Storage := storage.NewS3Storage(
		cfg.S3.Region,
		cfg.S3.Bucket,
		cfg.S3.AccessKeyID,
		cfg.S3.SecretAccessKey,
		cfg.S3.BaseURL,
	)

	// Initialize services
	notificationService := service.NewNotificationService(repos.Notifications, dispatcher)
	verificationService := service.NewVerificationService(
		repos,
		repository.NewTransactor(db.GetDB()),
		notificationService,
		s3Storage,
		locker,
	)

	reportScheduler := scheduler.NewReportScheduler(cfg.Scheduler.ReportCron, verificationService, notificationService)
	if err := reportScheduler.Start(); err != nil {
		logger.Fatal("Failed to start report scheduler", err)
	}

	// Initialize controllers
	verificationController := controller.NewVerificationController(verificationService, reportScheduler)
	notificationController := controller.NewNotificationController(notificationService, hub, cfg.CORS.AllowedOrigins)
	uploadController := controller.NewUploadController(s3Storage)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	// Setup router
	r := router.NewRouter(
		verificationController,
		notificationController,
		uploadController,
		authMiddleware,
		cfg,
	)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r.Setup(),
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}

	reportScheduler.Stop()
	dispatcher.Stop(ctx)

	if dead := dispatcher.DeadLetters(); len(dead) > 0 {
		logger.Warn("Undelivered notifications at shutdown", map[string]interface{}{
			"count": len(dead),
		})
	}

	logger.Info("Server stopped successfully")
}
