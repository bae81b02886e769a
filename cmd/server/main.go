package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/voxprohub/service-booking/internal/adapter"
	"github.com/voxprohub/service-booking/internal/application"
	"github.com/voxprohub/service-booking/internal/config"
	"github.com/voxprohub/service-booking/internal/domain/room"
	"github.com/voxprohub/service-booking/internal/events"
	"github.com/voxprohub/service-booking/internal/handler"
	"github.com/voxprohub/service-booking/internal/health"
	"github.com/voxprohub/service-booking/internal/logger"
	"github.com/voxprohub/service-booking/internal/middleware"
	"github.com/voxprohub/service-booking/internal/notification"
	"github.com/voxprohub/service-booking/internal/repository"
	"github.com/voxprohub/service-booking/internal/saga"
	"github.com/voxprohub/service-booking/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewNamed(cfg.AppEnv, "service-booking")
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("starting service-booking",
		zap.String("port", cfg.Port),
	)

	// Connect to database. TranslateError turns driver unique-violation
	// errors into gorm.ErrDuplicatedKey, which the slot index and webhook
	// log rely on.
	db, err := gorm.Open(postgres.Open(cfg.DBConfig.DSN()), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if err := db.AutoMigrate(
		&repository.BookingModel{},
		&repository.SlotHourModel{},
		&repository.PromoModel{},
		&repository.SessionModel{},
		&repository.WebhookEventModel{},
	); err != nil {
		zapLogger.Fatal("failed to auto-migrate", zap.Error(err))
	}
	zapLogger.Info("database migration completed")

	// Initialize repositories
	bookingRepo := repository.NewGormBookingRepository(db)
	slotIndex := repository.NewGormAvailabilityIndex(db)
	promoRepo := repository.NewGormPromoRepository(db)
	sessionRepo := repository.NewGormSessionRepository(db)
	webhookLog := repository.NewGormWebhookLog(db)

	// Seed the launch promo codes
	if err := promoRepo.SeedDefaults(context.Background()); err != nil {
		zapLogger.Warn("failed to seed default promos", zap.Error(err))
	}

	// Initialize Kafka publisher and notification dispatcher
	publisher := events.NewPublisher(cfg.KafkaConfig.Brokers, zapLogger)
	defer publisher.Close()
	dispatcher := notification.NewDispatcher(publisher, cfg.AdminWhatsApp, zapLogger)

	// Initialize QRIS gateway adapter (mock when no credentials are set)
	var qrisAdapter adapter.QRISAdapter
	if cfg.QRISConfig.BaseURL == "" {
		zapLogger.Warn("QRIS_BASE_URL not set, using mock gateway")
		qrisAdapter = adapter.NewMockQRISAdapter(zapLogger)
	} else {
		qrisAdapter = adapter.NewHTTPQRISAdapter(adapter.Config{
			BaseURL:      cfg.QRISConfig.BaseURL,
			ClientID:     cfg.QRISConfig.ClientID,
			ClientSecret: cfg.QRISConfig.ClientSecret,
			AppKey:       cfg.QRISConfig.AppKey,
			AppSecret:    cfg.QRISConfig.AppSecret,
		}, zapLogger)
	}

	// Initialize saga and application services
	qrisSaga := saga.NewQRISSagaService(sessionRepo, qrisAdapter, zapLogger)
	catalog := room.NewDefaultCatalog()

	bookingService := application.NewBookingService(
		bookingRepo, slotIndex, promoRepo, catalog, dispatcher,
		cfg.PaymentWindow, cfg.OpenHour, cfg.CloseHour, zapLogger,
	)
	lifecycleService := application.NewLifecycleService(
		bookingRepo, slotIndex, webhookLog, dispatcher, zapLogger,
	)
	paymentService := application.NewPaymentService(
		bookingRepo, sessionRepo, qrisSaga, zapLogger,
	)
	promoService := application.NewPromoService(promoRepo, zapLogger)

	// Start the deadline expiry sweep in a goroutine
	sweeper := worker.NewExpiryWorker(lifecycleService, cfg.SweepInterval, zapLogger)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	go func() {
		if err := sweeper.Start(workerCtx); err != nil && workerCtx.Err() == nil {
			zapLogger.Error("expiry worker failed", zap.Error(err))
		}
	}()

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	router.Use(middleware.LoggerMiddleware(zapLogger))
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestIDMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(db, "service-booking")
	healthHandler.RegisterRoutes(router)

	// Register API routes
	apiV1 := router.Group("/api/v1")
	handler.NewBookingHandler(bookingService, lifecycleService).RegisterRoutes(apiV1)
	handler.NewPaymentHandler(paymentService, lifecycleService, zapLogger).RegisterRoutes(apiV1)
	handler.NewPromoHandler(promoService).RegisterRoutes(apiV1)
	handler.NewAdminHandler(bookingService, promoService).RegisterRoutes(apiV1)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		zapLogger.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down service-booking...")

	// Stop the expiry sweep
	workerCancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("service-booking stopped")
}
