package http

import (
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Database, cfg.Version)
	booksController := NewBooksController(cfg.Books)
	highlightsController := NewHighlightsController(cfg.Books)
	syncController := NewSyncController(cfg.SyncService, cfg.Progress, cfg.TaskClient)
	exportController := NewExportController(cfg.Books, cfg.ExportDir)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Books API endpoints
	router.GET("/api/books", booksController.GetAllBooks)
	router.GET("/api/books/:asin", booksController.GetBook)
	router.PATCH("/api/books/:asin", booksController.UpdateBook)
	router.GET("/api/books/:asin/highlights", booksController.GetBookHighlights)
	router.GET("/api/stats", booksController.GetStats)

	// Highlight endpoints
	router.PATCH("/api/highlights/:id", highlightsController.SetHidden)

	// Sync endpoints
	router.POST("/api/sync", syncController.TriggerSync)
	router.GET("/api/sync/status", syncController.GetStatus)

	// Export endpoint
	router.POST("/api/export", exportController.Export)

	// Cover endpoint
	if cfg.CoverCache != nil {
		coversController := NewCoversController(cfg.CoverCache, cfg.Books)
		router.GET("/api/books/:asin/cover", coversController.GetCover)
	}

	return router
}
