package api

import (
	"github.com/gin-gonic/gin"
	"github.com/invoicestash/invoicestash/internal/api/handler"
	"github.com/invoicestash/invoicestash/internal/api/middleware"
	"github.com/invoicestash/invoicestash/internal/config"
	"github.com/invoicestash/invoicestash/internal/logger"
	"github.com/invoicestash/invoicestash/internal/notify"
	"github.com/invoicestash/invoicestash/internal/provider"
	"github.com/invoicestash/invoicestash/internal/service"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	accounts *service.AccountService,
	fetch *service.FetchService,
	documents *service.DocumentService,
	settings *service.SettingsService,
	registry *provider.Registry,
	hub *notify.Hub,
	log *logger.Logger,
	cfg *config.ServerConfig,
) *gin.Engine {
	// Set Gin mode
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.CORS.AllowAllOrigins,
	}))

	// Create handlers
	healthHandler := handler.NewHealthHandler()
	accountHandler := handler.NewAccountHandler(accounts, registry)
	fetchHandler := handler.NewFetchHandler(fetch)
	documentHandler := handler.NewDocumentHandler(documents)
	settingsHandler := handler.NewSettingsHandler(settings)
	eventsHandler := handler.NewEventsHandler(hub)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Provider catalog
		v1.GET("/providers", accountHandler.Providers)

		// Accounts
		v1.GET("/accounts", accountHandler.List)
		v1.POST("/accounts", accountHandler.Create)
		v1.PUT("/accounts/:id", accountHandler.Update)
		v1.DELETE("/accounts/:id", accountHandler.Delete)

		// Fetch sessions
		v1.POST("/fetch", fetchHandler.Run)
		v1.POST("/fetch/code", fetchHandler.SubmitCode)

		// Documents of the most recent session
		v1.GET("/documents", documentHandler.List)
		v1.DELETE("/documents", documentHandler.DeleteAll)
		v1.POST("/documents/delete", documentHandler.Delete)
		v1.GET("/documents/:id/file", documentHandler.File)
		v1.POST("/documents/:id/download", documentHandler.Download)
		v1.POST("/documents/:id/mail", documentHandler.Mail)

		// Delivery records
		v1.GET("/deliveries/emailed", documentHandler.ListEmailed)
		v1.POST("/deliveries/emailed", documentHandler.MarkEmailed)
		v1.DELETE("/deliveries/emailed", documentHandler.ClearEmailed)
		v1.GET("/deliveries/downloaded", documentHandler.ListDownloaded)
		v1.POST("/deliveries/downloaded", documentHandler.MarkDownloaded)
		v1.DELETE("/deliveries/downloaded", documentHandler.ClearDownloaded)

		// Settings
		v1.GET("/settings", settingsHandler.Get)
		v1.PUT("/settings", settingsHandler.Update)

		// Event stream
		v1.GET("/events", eventsHandler.Stream)
	}

	return r
}
