package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

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
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler) {
	// RSS output
	r.GET("/feeds/:category", handler.GetRSS)

	r.GET("/health", handler.GetHealth)

	api := r.Group("/api")
	{
		api.GET("/feeds", handler.GetAllFeeds)
		api.GET("/feeds/:category", handler.GetFeedsByCategory)
		api.GET("/search", handler.Search)
		api.GET("/trending", handler.GetTrending)
		api.GET("/status", handler.GetStatus)
		api.POST("/refresh", handler.Refresh)
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service":     "Pharma Pulse",
			"version":     handler.version,
			"description": "Pharmaceutical industry news aggregator with classification, search, and trending topics",
			"endpoints": map[string]string{
				"rss":      "/feeds/<category>",
				"health":   "/health",
				"feeds":    "/api/feeds",
				"category": "/api/feeds/<category>",
				"search":   "/api/search?q=<query>&category=<category>",
				"trending": "/api/trending?hours=<hours>&limit=<limit>",
				"status":   "/api/status",
				"refresh":  "/api/refresh (POST)",
			},
		})
	})

	// Favicon handler (return 204 to avoid 404s)
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}
