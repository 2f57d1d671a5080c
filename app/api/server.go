package api

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aiverse-labs/content-hook/app/cfg"
	"github.com/aiverse-labs/content-hook/app/database"
)

func NewHandler(contentRepo database.ContentRepository,
	notificationRepo database.NotificationRepository,
	ingestor IngestorInterface, wsHub HubInterface) *Handler {
	return &Handler{
		contentRepo:      contentRepo,
		notificationRepo: notificationRepo,
		ingestor:         ingestor,
		hub:              wsHub,
	}
}

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler) *gin.Engine {
	// Set Gin mode (can be controlled via GIN_MODE environment variable)
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// Middleware
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	// CORS middleware for API endpoints
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, "+SignatureHeader)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Routes
	setupRoutes(r, handler)

	return r
}

// setupRoutes configures all the application routes
func setupRoutes(r *gin.Engine, handler *Handler) {
	appCfg := cfg.Get()

	// Webhook ingestion: rate limit, then signature, then validation.
	// Throttled and unsigned requests never touch the database.
	limiter := NewRateLimiter(time.Duration(appCfg.RateLimitWindow)*time.Second, appCfg.RateLimitQuota)

	webhooks := r.Group("/webhooks")
	webhooks.Use(limiter.Middleware())
	if appCfg.SignatureEnforced() {
		webhooks.Use(signatureMiddleware(appCfg.WebhookSecret))
		slog.Info("Webhook signature verification enabled")
	} else {
		slog.Warn("WEBHOOK_SECRET not set, accepting unsigned webhook requests")
	}
	webhooks.POST("/content", handler.PostContentWebhook)

	// Read endpoints
	r.GET("/content", handler.GetContent)
	r.GET("/content/:uuid", handler.GetContentByUUID)
	r.GET("/notifications", handler.GetNotifications)

	// Real-time subscribers
	r.GET("/ws", handler.GetWS)

	// Health and status endpoints
	r.GET("/health", handler.GetHealth)
	r.GET("/stats", handler.GetStats)

	// Root endpoint with basic information
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service":     "Content Hook",
			"version":     appCfg.Version,
			"description": "AIverse content-event webhook with idempotent ingestion, phased publishing and real-time broadcast",
			"endpoints": map[string]string{
				"webhook":       "/webhooks/content (POST)",
				"content":       "/content?limit=<n>",
				"item":          "/content/<uuid>",
				"notifications": "/notifications?limit=<n>",
				"websocket":     "/ws",
				"health":        "/health",
				"stats":         "/stats",
			},
			"signature": map[string]interface{}{
				"enforced": appCfg.SignatureEnforced(),
				"header":   SignatureHeader,
			},
		})
	})

	// Favicon handler (return 204 to avoid 404s)
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}
