package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Dias221467/Language_Exchange/internal/cache"
	"github.com/Dias221467/Language_Exchange/internal/config"
	"github.com/Dias221467/Language_Exchange/internal/database"
	"github.com/Dias221467/Language_Exchange/internal/events"
	"github.com/Dias221467/Language_Exchange/internal/handlers"
	"github.com/Dias221467/Language_Exchange/internal/jobs"
	"github.com/Dias221467/Language_Exchange/internal/repository"
	cron "github.com/Dias221467/Language_Exchange/internal/scheduler"
	"github.com/Dias221467/Language_Exchange/internal/services"
	"github.com/Dias221467/Language_Exchange/pkg/logger"
	"github.com/Dias221467/Language_Exchange/pkg/middleware"
	"github.com/Dias221467/Language_Exchange/pkg/stream"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

func main() {
	// Load configuration from .env file and environment
	cfg := config.LoadConfig()

	logger.InitLogger(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	logger.Log.Info("Logger initialized")

	// run returns before exiting so its deferred cleanup always executes.
	if err := run(cfg); err != nil {
		logger.Log.Fatalf("Server error: %v", err)
	}
}

func run(cfg *config.Config) error {
	db, err := database.ConnectDB(cfg)
	if err != nil {
		return fmt.Errorf("database connection: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = db.Client().Disconnect(ctx)
	}()

	indexCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = database.EnsureIndexes(indexCtx, db)
	cancel()
	if err != nil {
		return fmt.Errorf("index creation: %w", err)
	}

	unreadCache, closeCache, err := cache.NewUnreadCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.UnreadCacheTTL)
	if err != nil {
		logger.Log.WithError(err).Warn("Unread count cache disabled")
		unreadCache, closeCache = cache.NoopCache{}, func() error { return nil }
	}
	defer closeCache()

	publisher := events.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()

	streamClient := stream.NewClient(cfg.StreamAPIKey, cfg.StreamAPISecret, cfg.StreamBaseURL)
	if !streamClient.Enabled() {
		logger.Log.Warn("STREAM_API_KEY or STREAM_API_SECRET missing, chat features disabled")
	}

	// --- Repositories ---
	userRepo := repository.NewUserRepository(db)
	friendRepo := repository.NewFriendRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)

	// --- Services ---
	notificationService := services.NewNotificationService(notificationRepo, outboxRepo, userRepo, friendRepo, unreadCache, publisher)
	userService := services.NewUserService(userRepo, streamClient)
	friendService := services.NewFriendService(friendRepo, userRepo, notificationService, database.NewTransactor(db.Client(), cfg.Transactions))
	chatService := services.NewChatService(streamClient)

	// --- Background jobs ---
	relay := jobs.NewOutboxRelay(notificationService, 30*time.Second)
	scheduler, err := cron.StartNotificationCronJobs(relay, cfg.OutboxSchedule)
	if err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	// Registered after the disconnect so a running relay finishes first.
	defer cron.StopNotificationCronJobs(scheduler)

	// --- Handlers ---
	router := mux.NewRouter()
	router.Use(middleware.LoggingMiddleware)
	router.Use(middleware.MetricsMiddleware)

	router.HandleFunc("/healthz", handlers.HealthHandler).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	handlers.RegisterRoutes(router, handlers.Handlers{
		User:         handlers.NewUserHandler(userService, cfg),
		Friend:       handlers.NewFriendHandler(friendService),
		Notification: handlers.NewNotificationHandler(notificationService),
		Chat:         handlers.NewChatHandler(chatService),
	}, cfg.JWTSecret, middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst))

	// Serve the built client, falling back to index.html for client-side routes
	if cfg.StaticDir != "" {
		router.PathPrefix("/").Handler(spaHandler(cfg.StaticDir))
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendURL},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      c.Handler(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Log.Infof("Server running on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return fmt.Errorf("listen: %w", err)
	case <-quit:
	}

	logger.Log.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("Graceful shutdown failed")
	}
	return nil
}

func spaHandler(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(dir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			return
		}
		files.ServeHTTP(w, r)
	})
}
