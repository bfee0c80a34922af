// Package server assembles the HTTP router.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "stockscreener/internal/docs" // Import swagger docs
	"stockscreener/internal/handlers"
	"stockscreener/internal/middleware"
)

// NewRouter builds the Gin engine with middleware, docs, health check and the v1 routes.
func NewRouter(stockHandler *handlers.StockHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	stocks := v1.Group("/stocks")
	stocks.POST("", stockHandler.AddStocks)
	stocks.GET("", stockHandler.ListStocks)
	stocks.GET("/:id", stockHandler.GetStock)
	stocks.DELETE("/:id", stockHandler.DeleteStock)
	stocks.POST("/:id/refresh", stockHandler.RefreshStock)

	return router
}
