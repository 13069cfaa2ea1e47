package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"bookpay/internal/handler"
	"bookpay/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	CheckoutHandler *handler.CheckoutHandler
	MethodsHandler  *handler.MethodsHandler
	RedisClient     *redis.Client
	NewRelicApp     *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Payment method catalog.
		v1.GET("/payment-methods", deps.MethodsHandler.List)

		// Checkout session routes.
		checkout := v1.Group("/checkout")
		{
			checkout.POST("/:session/submit", deps.CheckoutHandler.Submit)
			checkout.GET("/:session", deps.CheckoutHandler.GetState)
			checkout.POST("/:session/retry", deps.CheckoutHandler.Retry)
			checkout.DELETE("/:session", deps.CheckoutHandler.Close)
		}
	}

	return router
}
