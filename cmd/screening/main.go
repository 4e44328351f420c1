package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"
	"github.com/rs/cors"

	cfg "github.com/sand/swift-screening-app/backend/config"
	"github.com/sand/swift-screening-app/backend/internal/crawler"
	"github.com/sand/swift-screening-app/backend/internal/handlers"
	"github.com/sand/swift-screening-app/backend/internal/normalize"
	"github.com/sand/swift-screening-app/backend/internal/registry"
	"github.com/sand/swift-screening-app/backend/internal/sdn"
	"github.com/sand/swift-screening-app/backend/internal/swift"
	"github.com/sand/swift-screening-app/backend/internal/usecases"
	"github.com/sand/swift-screening-app/backend/internal/usecases/repository"
	"github.com/sand/swift-screening-app/backend/internal/workers"
	"github.com/sand/swift-screening-app/backend/pkg/database"
)

// Server timeout constants.
const (
	readTimeoutSeconds     = 15
	writeTimeoutSeconds    = 15
	idleTimeoutSeconds     = 60
	shutdownTimeoutSeconds = 5
)

func main() {
	// Устанавливаем timezone UTC
	time.Local = time.UTC

	// Parse configuration
	config, err := cfg.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	// Setup logging
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if config.App.Debug {
		opts.Level = slog.LevelDebug
	}

	// Определяем путь к миграциям
	migrationsPath := "./migrations"
	if workDir, err := os.Getwd(); err == nil {
		// Пробуем сначала относительный путь
		if _, err := os.Stat(filepath.Join(workDir, "migrations")); !os.IsNotExist(err) {
			migrationsPath = filepath.Join(workDir, "migrations")
		} else if _, err := os.Stat(filepath.Join(workDir, "..", "migrations")); !os.IsNotExist(err) {
			// Если не нашли, пробуем на уровень выше
			migrationsPath = filepath.Join(workDir, "..", "migrations")
		}
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, opts))
	logger.Warn("Starting application with configuration",
		"debug", config.App.Debug,
		"server_port", config.HTTP.Port,
		"orginfo_url", config.Registry.OrginfoBaseURL,
		"egrul_url", config.Registry.EgrulBaseURL,
		"max_depth", config.Crawler.MaxDepth,
		"watcher_enabled", config.Watcher.Enabled)

	// Connect to Database
	pg, err := database.New(config,
		database.MaxPoolSize(config.DB.PoolMax),
		database.ConnTimeout(config.DB.ConnectTimeout),
		database.HealthCheckPeriod(config.DB.HealthCheckPeriod),
		database.Isolation(pgx.ReadCommitted),
	)
	if err != nil {
		slog.Error("postgres connection failed", slog.String("error", err.Error()))
		return
	}
	defer pg.Close()

	// Run database migrations
	logger.Info("Running database migrations", "path", migrationsPath)
	if err = database.RunMigrations(logger, config.DB.DatabaseURL, migrationsPath); err != nil {
		logger.Error("Failed to run database migrations", "error", err)
		log.Fatal(err)
	}
	logger.Info("Database migrations completed successfully")

	// Create core components
	normalizer := normalize.NewNormalizer(normalize.DefaultTables())
	extractor := swift.NewExtractor(logger, normalizer)

	registryTimeout := time.Duration(config.Registry.RequestTimeout) * time.Second
	registryDelay := time.Duration(config.Registry.MinRequestDelay) * time.Millisecond

	orginfoClient, err := registry.NewOrginfoClient(logger, config.Registry.OrginfoBaseURL, registryTimeout, registryDelay)
	if err != nil {
		log.Fatal(err)
	}
	egrulClient, err := registry.NewEgrulClient(logger, config.Registry.EgrulBaseURL, registryTimeout, registryDelay)
	if err != nil {
		log.Fatal(err)
	}

	senderCrawler := crawler.New(logger, orginfoClient, normalizer, config.Crawler.MaxDepth)
	receiverCrawler := crawler.New(logger, egrulClient, normalizer, config.Crawler.MaxDepth)

	enrichmentService := usecases.NewEnrichmentService(logger, extractor, orginfoClient,
		senderCrawler, receiverCrawler, time.Duration(config.Crawler.EnrichTimeout)*time.Second)

	// Create repositories and services
	messagesRepository := repository.NewMessagesRepository(logger, pg)
	websocketManager := handlers.NewWebSocketManager(logger)
	messageService := usecases.NewMessageService(logger, messagesRepository, websocketManager)

	sdnService := sdn.NewService(logger, config.SDN.ListURL, config.SDN.XMLPath,
		config.SDN.CachePath, time.Duration(config.SDN.DownloadTimeout)*time.Second)

	// Initialize and run workers
	workersCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	go workers.NewSDNRefresher(logger, sdnService,
		time.Duration(config.SDN.RefreshInterval)*time.Hour).Start(workersCtx)

	if config.Watcher.Enabled {
		inboxWatcher := workers.NewInboxWatcher(logger, enrichmentService, messageService, config.Watcher.InboxDir)
		go func() {
			if err := inboxWatcher.Start(workersCtx); err != nil {
				logger.Error("Inbox watcher failed", "error", err)
			}
		}()
	}

	// Create handlers
	httpHandler := handlers.NewHTTPHandler(logger, enrichmentService, messageService, sdnService)
	wsHandler := handlers.NewWebSocketHandler(logger, websocketManager)

	// Create router
	router := mux.NewRouter()

	// Register WebSocket routes before HTTP routes
	wsHandler.RegisterRoutes(router)
	httpHandler.RegisterRoutes(router)

	// Configure CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	// Wrap router in CORS middleware
	handler := c.Handler(router)

	// Create HTTP server with timeouts
	server := &http.Server{
		Addr:         ":" + config.HTTP.Port,
		Handler:      handler,
		ReadTimeout:  readTimeoutSeconds * time.Second,
		WriteTimeout: writeTimeoutSeconds * time.Second,
		IdleTimeout:  idleTimeoutSeconds * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", "address", server.Addr)
		if err = server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			log.Fatal(err)
		}
	}()

	// Set up graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	stopWorkers()

	// Give 5 seconds to complete current requests
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeoutSeconds*time.Second)
	defer cancel()

	if err = server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
		return
	}

	logger.Info("Server exited properly")
}
