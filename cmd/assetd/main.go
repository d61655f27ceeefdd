package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"asset-inventory-backend/config"
	"asset-inventory-backend/internal/api"
	"asset-inventory-backend/internal/backup"
	"asset-inventory-backend/internal/chatbot"
	"asset-inventory-backend/internal/db"
	"asset-inventory-backend/internal/notification"
	"asset-inventory-backend/internal/session"
	"asset-inventory-backend/internal/store"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "assetd ", log.LstdFlags)

	// .env is optional; real deployments use the environment directly.
	if err := godotenv.Load(); err != nil {
		logger.Println("no .env file found, relying on environment")
	}

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	var webpushOptions *webpush.Options
	if cfg.Push.PublicKey != "" && cfg.Push.PrivateKey != "" {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
	} else {
		logger.Println("VAPID keys not configured, push notifications disabled")
	}

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	// Redis backs the session store.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	sessions := session.NewStore(rdb, cfg.Redis.SessionTTL)

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create the store layer instance
	appStore := store.NewGormStore(gormDB, store.Options{
		DefaultLoanDays: cfg.Workflow.DefaultLoanDays,
		LateFeePerDay:   cfg.Workflow.LateFeePerDay,
	})
	logger.Println("data store initialized")

	// Notification worker pool
	var notifier *notification.WorkerPool
	if webpushOptions != nil {
		notifier = notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, webpushOptions)
		notifier.Start(ctx)
	}

	// Chatbot gateway with fallback store and async job workers
	chatClient := chatbot.NewClient(cfg.Chatbot.ServiceURL, cfg.Chatbot.Timeout)
	fallbacks := chatbot.NewFallbackStore(appStore, cfg.Chatbot.FallbackTTL)
	chatService := chatbot.NewService(chatClient, fallbacks, appStore)
	jobs := chatbot.NewJobQueue(cfg.Chatbot.JobWorkers, chatService, time.Duration(cfg.Chatbot.JobTTLMinutes)*time.Minute)
	jobs.Start(ctx)

	// Database backups
	backups, err := backup.NewManager(cfg.Backup, cfg.Database.DSN)
	if err != nil {
		logger.Fatalf("failed to initialize backup manager: %v", err)
	}

	// Initialize router
	router := api.NewRouter(cfg, api.Deps{
		Store:    appStore,
		Sessions: sessions,
		Chatbot:  chatService,
		Jobs:     jobs,
		Notifier: notifier,
		Backups:  backups,
		WebPush:  webpushOptions,
	})
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	// Create a deadline to wait for.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	if err := rdb.Close(); err != nil {
		logger.Printf("redis close: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
