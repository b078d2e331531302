package httpapi

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes sets up the API routes.
func SetupRoutes(handler *Handler) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(CORS())
	router.Use(gin.Logger())

	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		metrics := v1.Group("/metrics")
		{
			metrics.GET("", handler.GetCatalog)
			metrics.GET("/:id/agg", handler.GetAgg)
			metrics.GET("/:id/timeseries", handler.GetTimeseries)
			metrics.GET("/:id/top", handler.GetTop)
		}
	}

	return router
}

// CORS returns a middleware that handles CORS.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Origin, Cache-Control")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
