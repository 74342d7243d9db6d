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

	"github.com/ikkim/bizmarket-backend/config"
	"github.com/ikkim/bizmarket-backend/internal/app/controller"
	"github.com/ikkim/bizmarket-backend/internal/app/repository"
	"github.com/ikkim/bizmarket-backend/internal/app/service"
	"github.com/ikkim/bizmarket-backend/internal/db"
	"github.com/ikkim/bizmarket-backend/internal/middleware"
	"github.com/ikkim/bizmarket-backend/internal/router"
	"github.com/ikkim/bizmarket-backend/internal/scheduler"
	"github.com/ikkim/bizmarket-backend/internal/storage"
	ws "github.com/ikkim/bizmarket-backend/internal/websocket"
	"github.com/ikkim/bizmarket-backend/pkg/logger"
	"github.com/ikkim/bizmarket-backend/pkg/metrics"
	"github.com/ikkim/bizmarket-backend/pkg/redis"
	"github.com/ikkim/bizmarket-backend/pkg/sms"
)

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

	logger.Info("Starting marketplace backend", map[string]interface{}{
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

	// Initialize Redis (carts and token blacklist)
	if err := redis.Init(&cfg.Redis); err != nil {
		logger.Fatal("Failed to initialize Redis", err)
	}
	defer func() {
		if err := redis.Close(); err != nil {
			logger.Error("Failed to close Redis connection", err)
		}
	}()

	m := metrics.New(cfg.Metrics.Namespace)
	gormDB := db.GetDB()

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	businessRepo := repository.NewBusinessRepository(gormDB)
	catalogRepo := repository.NewCatalogRepository(gormDB)
	quoteRepo := repository.NewQuoteRepository(gormDB)
	cartStore := repository.NewRedisCartStore(redis.GetClient(), cfg.Session.TTL)

	// Notification channels
	hub := ws.NewHub()
	go hub.Run()

	var smsSender sms.Sender
	if cfg.SMS.AccountSID != "" {
		smsSender = sms.NewTwilioSender(cfg.SMS)
	} else {
		logger.Warn("Twilio credentials missing, SMS alerts disabled")
	}
	notifier := service.NewNotificationService(hub, smsSender, m)

	s3Storage := storage.NewS3Storage(cfg.S3)

	// Initialize services
	authService := service.NewAuthService(
		userRepo,
		redis.NewTokenBlacklist(redis.GetClient()),
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	businessService := service.NewBusinessService(gormDB, businessRepo, catalogRepo, cartStore, s3Storage.PublicBaseURL())
	cartService := service.NewCartService(cartStore, businessRepo, catalogRepo, m)
	quoteService := service.NewQuoteService(
		gormDB,
		quoteRepo,
		businessRepo,
		catalogRepo,
		userRepo,
		cartStore,
		notifier,
		m,
		service.QuoteOptions{
			StrictTransitions: cfg.Quote.StrictTransitions,
			DashboardLimit:    cfg.Quote.DashboardLimit,
		},
	)
	uploadService := service.NewUploadService(businessService, s3Storage)

	// Stale quote reminders
	reminders := scheduler.NewQuoteReminderScheduler(cfg.Quote.ReminderSchedule, cfg.Quote.StaleAfter, quoteRepo, notifier)
	if err := reminders.Start(); err != nil {
		logger.Fatal("Failed to start quote reminder scheduler", err)
	}

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, redis.NewTokenBlacklist(redis.GetClient()))

	// Setup router
	r := router.NewRouter(
		router.Controllers{
			Auth:     controller.NewAuthController(authService),
			Business: controller.NewBusinessController(businessService),
			Cart:     controller.NewCartController(cartService),
			Quote:    controller.NewQuoteController(quoteService),
			Owner:    controller.NewOwnerController(quoteService),
			Admin:    controller.NewAdminController(businessService),
			Upload:   controller.NewUploadController(uploadService),
			WS:       controller.NewWSController(hub, cfg.CORS.AllowedOrigins),
		},
		authMiddleware,
		m,
		cfg,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
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

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}

	reminders.Stop()
	hub.Stop()
	notifier.Wait()

	logger.Info("Server stopped successfully")
}
