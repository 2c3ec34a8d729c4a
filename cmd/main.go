package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/oiyahen/scrim-scheduler/cache"
	"github.com/oiyahen/scrim-scheduler/config"
	"github.com/oiyahen/scrim-scheduler/db"
	"github.com/oiyahen/scrim-scheduler/handlers"
	"github.com/oiyahen/scrim-scheduler/queue"
	"github.com/oiyahen/scrim-scheduler/realtime"
	"github.com/oiyahen/scrim-scheduler/repositories"
	api "github.com/oiyahen/scrim-scheduler/routes"
	"github.com/oiyahen/scrim-scheduler/services"
	"github.com/oiyahen/scrim-scheduler/storage"
)

const schedulerInterval = 30 * time.Second // How often the expiry sweep runs

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	// Инициализация загрузчика файлов (Cloudflare R2)
	cloudflareUploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Cloudflare R2 uploader initialized")

	// Кэш списка открытых слотов. Пустой REDIS_ADDR отключает кэширование.
	redisClient := cache.NewRedisClient(cfg.RedisAddr)
	slotCache := cache.NewSlotCache(redisClient)
	if redisClient != nil {
		logger.Info("Redis cache enabled", slog.String("addr", cfg.RedisAddr))
	} else {
		logger.Info("Redis cache disabled")
	}

	// Брокер событий: publisher для подтверждений и отмен, consumer пишет
	// журнал подтверждённых скримов. Без брокера сервис работает дальше.
	publisher, err := queue.NewPublisher(cfg.AMQPURL)
	if err != nil {
		logger.Warn("failed to connect to AMQP broker, events disabled", slog.Any("error", err))
		publisher = nil
	} else {
		defer publisher.Close()
		go queue.StartConfirmedLogConsumer(cfg.AMQPURL)
		logger.Info("AMQP publisher initialized")
	}

	// Инициализация WebSocket Hub
	wsHub := realtime.NewHub()
	go wsHub.Run()
	logger.Info("WebSocket Hub started")

	// Инициализация репозиториев
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	gameRepo := repositories.NewPostgresGameRepository(dbConn)
	slotRepo := repositories.NewPostgresSlotRepository(dbConn)
	inviteRepo := repositories.NewPostgresInviteRepository(dbConn)
	notificationRepo := repositories.NewPostgresNotificationRepository(dbConn)
	statsRepo := repositories.NewPostgresStatsRepository(dbConn)
	logger.Info("Repositories initialized")

	// Инициализация сервисов
	authService := services.NewAuthService(userRepo)
	userService := services.NewUserService(userRepo, teamRepo)
	teamService := services.NewTeamService(dbConn, teamRepo, userRepo, gameRepo, slotRepo, cloudflareUploader)
	inviteService := services.NewInviteService(inviteRepo, teamRepo, userRepo)
	notificationService := services.NewNotificationService(notificationRepo, wsHub, publisher, logger)
	slotService := services.NewSlotService(
		dbConn,
		slotRepo,
		userRepo,
		teamRepo,
		gameRepo,
		notificationService,
		slotCache,
		logger,
	)
	dashboardService := services.NewDashboardService(statsRepo, teamRepo)
	logger.Info("Services initialized")

	// Планировщик: отменяет открытые и черновые слоты, чьё время начала прошло
	go func() {
		ticker := time.NewTicker(schedulerInterval)
		defer ticker.Stop()
		logger.Info("Slot expiry scheduler started", slog.Duration("interval", schedulerInterval))

		// Run once immediately at startup, then on ticker
		if err := slotService.CancelExpiredSlots(context.Background()); err != nil {
			logger.Error("Scheduler: initial run failed", slog.Any("error", err))
		}

		for range ticker.C {
			if err := slotService.CancelExpiredSlots(context.Background()); err != nil {
				logger.Error("Scheduler: periodic run failed", slog.Any("error", err))
			}
		}
	}()

	// Инициализация обработчиков HTTP
	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	userHandler := handlers.NewUserHandler(userService)
	teamHandler := handlers.NewTeamHandler(teamService)
	slotHandler := handlers.NewSlotHandler(slotService)
	inviteHandler := handlers.NewInviteHandler(inviteService)
	notificationHandler := handlers.NewNotificationHandler(notificationService, userService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, userService)
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.JWTSecretKey,
		authHandler,
		userHandler,
		teamHandler,
		slotHandler,
		inviteHandler,
		notificationHandler,
		dashboardHandler,
		webSocketHandler,
	)
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		} else {
			logger.Info("server stopped gracefully")
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		} else {
			logger.Info("server shutdown complete")
		}
	}
	logger.Info("application exited")
}
