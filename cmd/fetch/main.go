package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/invoicestash/invoicestash/internal/artifact"
	"github.com/invoicestash/invoicestash/internal/config"
	"github.com/invoicestash/invoicestash/internal/domain"
	"github.com/invoicestash/invoicestash/internal/logger"
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
	// Initialize logger first (with defaults)
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "text",
		ServiceName: "invoicestash-fetch",
	})
	logger.SetDefaultLogger(appLogger)

	// Parse command line flags
	from := flag.String("from", "", "Start of the issue-date range (2006-01-02)")
	to := flag.String("to", "", "End of the issue-date range (2006-01-02)")
	accounts := flag.String("accounts", "", "Comma-separated account IDs; empty fetches all")
	download := flag.Bool("download", false, "Archive every fetched document after the session")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	filter, err := domain.ParseDateRange(*from, *to)
	if err != nil {
		appLogger.WithError(err).Fatal("Invalid date range")
	}

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

	// Code prompts arrive as events; answer them from the terminal
	hub := notify.NewHub()
	codeRelay := relay.New(hub)
	artifacts := artifact.NewTable()

	registry := provider.NewRegistry()
	registry.Register(moneyflow.Info, moneyflow.New)

	accountService := service.NewAccountService(accountRepo, credentialVault, appLogger)
	documentService := service.NewDocumentService(
		documentRepo,
		deliveryRepo,
		settingsRepo,
		artifacts,
		archive,
		nil,
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

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, canceling...")
		cancel()
	}()

	go promptForCodes(ctx, hub, fetchService)

	var ids []string
	if *accounts != "" {
		ids = strings.Split(*accounts, ",")
	}

	result, err := fetchService.Run(ctx, filter, ids)
	if err != nil {
		appLogger.WithError(err).Fatal("Fetch session failed")
	}

	for _, r := range result.Results {
		if r.Error != "" {
			appLogger.WithFields(logger.Fields{
				logger.FieldAccount: r.AccountName,
				"reason":            r.Error,
			}).Warn("Account failed")
			continue
		}
		appLogger.WithFields(logger.Fields{
			logger.FieldAccount: r.AccountName,
			"documents":         r.Documents,
		}).Info("Account fetched")
	}

	if *download {
		archiveAll(ctx, documentService, appLogger)
	}

	appLogger.WithFields(logger.Fields{
		logger.FieldSessionID: result.SessionID,
		"documents":           result.Documents,
	}).Info("Session completed")
}

// promptForCodes answers code-request events from the terminal so suspended
// scripts can resume.
func promptForCodes(ctx context.Context, hub *notify.Hub, fetch *service.FetchService) {
	events, cancel := hub.Subscribe()
	defer cancel()

	stdin := bufio.NewScanner(os.Stdin)
	for {
		select {
		case e, ok := <-events:
			if !ok {
				return
			}
			if e.Type != notify.EventCodeRequested {
				continue
			}
			if e.Question != "" {
				fmt.Printf("%s asks %q: ", e.AccountName, e.Question)
			} else {
				fmt.Printf("Enter code for %s: ", e.AccountName)
			}
			if !stdin.Scan() {
				return
			}
			fetch.SubmitCode(e.AccountID, strings.TrimSpace(stdin.Text()))
		case <-ctx.Done():
			return
		}
	}
}

// archiveAll stores every document of the finished session in the archive.
func archiveAll(ctx context.Context, documents *service.DocumentService, log *logger.Logger) {
	docs, err := documents.List(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to list documents")
		return
	}
	for _, d := range docs {
		key, err := documents.Download(ctx, d.ID)
		if err != nil {
			log.WithError(err).WithField("file", d.FileName).Error("Failed to archive document")
			continue
		}
		log.WithField("file", key).Info("Archived")
	}
}
