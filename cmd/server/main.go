package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/tutor_marketplace/internal/app"
	"github.com/Freeeeeet/tutor_marketplace/internal/config"
	"github.com/Freeeeeet/tutor_marketplace/internal/filestore"
	"github.com/Freeeeeet/tutor_marketplace/internal/handler"
	"github.com/Freeeeeet/tutor_marketplace/internal/queue"
	"github.com/Freeeeeet/tutor_marketplace/internal/repository"
	"github.com/Freeeeeet/tutor_marketplace/internal/router"
	"github.com/Freeeeeet/tutor_marketplace/internal/service"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	logger.Info("Starting tutor marketplace",
		zap.String("environment", cfg.Environment),
		zap.String("http_addr", cfg.HTTPAddr),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to create connection pool", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Миграции применяются на старте
	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath, logger)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}

	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	migrator.Close()

	// Опциональная инфраструктура: очередь, redis, telegram
	var publisher *queue.Publisher
	if cfg.RabbitURL != "" {
		publisher, err = queue.NewPublisher(cfg.RabbitURL, logger)
		if err != nil {
			logger.Fatal("Failed to connect to rabbitmq", zap.Error(err))
		}
		defer publisher.Close()
	} else {
		logger.Warn("RABBITMQ_URL not set, realtime notification events disabled")
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
	}

	var tgBot *bot.Bot
	if cfg.TelegramToken != "" {
		tgBot, err = bot.New(cfg.TelegramToken)
		if err != nil {
			logger.Error("Failed to create telegram bot, relay disabled", zap.Error(err))
			tgBot = nil
		}
	}

	files, err := filestore.New(cfg.UploadDir, cfg.BaseURL)
	if err != nil {
		logger.Fatal("Failed to create file store", zap.Error(err))
	}

	// Репозитории
	userRepo := repository.NewUserRepository(pool)
	courseRepo := repository.NewCourseRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)
	payoutRepo := repository.NewPayoutRepository(pool)
	unavailableRepo := repository.NewUnavailableRepository(pool)
	conversationRepo := repository.NewConversationRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	settingsRepo := repository.NewSettingsRepository(pool)

	// Сервисы
	notifier := service.NewNotificationService(notificationRepo, userRepo, publisher, tgBot, logger)
	settings := service.NewSettingsService(settingsRepo, rdb, cfg.ServiceFeeDefault, logger)
	availability := service.NewAvailabilityService(sessionRepo, unavailableRepo, logger)
	courseService := service.NewCourseService(courseRepo, logger)
	bookingService := service.NewBookingService(pool, userRepo, courseRepo, bookingRepo, sessionRepo,
		paymentRepo, conversationRepo, availability, notifier, logger)
	paymentService := service.NewPaymentService(pool, paymentRepo, bookingRepo, sessionRepo, files, notifier, logger)
	payoutService := service.NewPayoutService(pool, sessionRepo, payoutRepo, settings, notifier, logger)

	// Еженедельный расчёт выплат
	scheduler := app.NewScheduler(payoutService, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	e := router.New(cfg.JWTSecret,
		cfg.UploadDir,
		handler.NewCourseHandler(courseService),
		handler.NewBookingHandler(bookingService),
		handler.NewPaymentHandler(paymentService),
		handler.NewPayoutHandler(payoutService, settings),
		handler.NewAvailabilityHandler(availability),
		handler.NewNotificationHandler(notifier),
	)

	go func() {
		if err := e.Start(cfg.HTTPAddr); err != nil {
			logger.Info("HTTP server stopped", zap.Error(err))
		}
	}()

	// Ждём сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}
}
