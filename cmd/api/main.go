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

	"github.com/invoicestash/invoicestash/internal/api"
	"github.com/invoicestash/invoicestash/internal/artifact"
	"github.com/invoicestash/invoicestash/internal/config"
	"github.com/invoicestash/invoicestash/internal/logger"
	"github.com/invoicestash/invoicestash/internal/mail"
	"github.com/invoicestash/invoicestash/internal/notify"
	"github.com/invoicestash/invoicestash/internal/provider"
	"github.com/invoicestash/invoicestash/internal/provider/moneyflow"
	"github.com/invoicestash/invoicestash/internal/relay"
	"github.com/invoicestash/invoicestash/internal/repository"
	"github.com/invoicestash/invoicestash/internal/service"
	"github.com/invoicestash/invoicestash/internal/storage"
	"github.com/invoicestash/invoicestash/internal/vault"
)

func main() {
	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "invoicestash-api",
	})
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	// Initialize repositories
	accountRepo := repository.NewAccountRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	deliveryRepo := repository.NewDeliveryRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	// Initialize credential vault
	credentialVault, err := vault.NewFileVault(cfg.Vault.Path, cfg.Vault.Key)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to open credential vault")
	}

	// Initialize document archive
	archive, err := storage.NewStorage(&storage.Config{
		Type:      cfg.Archive.Type,
		Dir:       cfg.Archive.Dir,
		Endpoint:  cfg.Archive.Endpoint,
		AccessKey: cfg.Archive.AccessKey,
		SecretKey: cfg.Archive.SecretKey,
		UseSSL:    cfg.Archive.UseSSL,
		Bucket:    cfg.Archive.Bucket,
		Region:    cfg.Archive.Region,
		PublicURL: cfg.Archive.PublicURL,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize document archive")
	}
	if s3Archive, ok := archive.(*storage.S3Storage); ok {
		if err := s3Archive.EnsureBucket(context.Background()); err != nil {
			appLogger.WithError(err).Fatal("Failed to ensure archive bucket")
		}
	}

	// Event hub, code relay and artifact table shared across the services
	hub := notify.NewHub()
	codeRelay := relay.New(hub)
	artifacts := artifact.NewTable()

	// Register provider scripts
	registry := provider.NewRegistry()
	registry.Register(moneyflow.Info, moneyflow.New)

	// Mail delivery is optional; without SMTP settings the mail endpoint
	// reports it as unconfigured.
	var sender mail.Sender
	if cfg.SMTP.Host != "" {
		sender = mail.NewSMTPSender(mail.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			SSL:      cfg.SMTP.SSL,
			From:     cfg.SMTP.From,
		})
	}

	// Initialize services
	accountService := service.NewAccountService(accountRepo, credentialVault, appLogger)
	settingsService := service.NewSettingsService(settingsRepo, appLogger)
	documentService := service.NewDocumentService(
		documentRepo,
		deliveryRepo,
		settingsRepo,
		artifacts,
		archive,
		sender,
		appLogger,
	)
	fetchService := service.NewFetchService(
		accountService,
		accountRepo,
		documentRepo,
		settingsRepo,
		registry,
		codeRelay,
		artifacts,
		hub,
		appLogger,
		&service.FetchConfig{CodeTimeout: cfg.Fetch.CodeTimeout},
	)

	// Apply the persisted debug-mode setting to the logger
	if settings, err := settingsService.Get(context.Background()); err == nil {
		appLogger.SetDebugMode(settings.DebugMode)
	}

	// Setup router
	router := api.SetupRouter(
		accountService,
		fetchService,
		documentService,
		settingsService,
		registry,
		hub,
		appLogger,
		&cfg.Server,
	)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Fatal("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}
