package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"payrecon/internal/config"
	"payrecon/internal/handler"
	"payrecon/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	PaymentHandler *handler.PaymentHandler
	RedisClient    *redis.Client // Optional: enables request idempotency
	NewRelicApp    *newrelic.Application
	Logger         *zap.Logger
	Auth           config.AuthConfig
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
		router.Use(middleware.NewRelicAttributes())
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Admin routes.
	admin := router.Group("/v1/admin")
	if deps.Auth.Disabled {
		logger.Warn("admin authentication is disabled")
	} else {
		admin.Use(middleware.AdminAuth(deps.Auth.JWTSecret))
	}
	admin.Use(middleware.IdempotencyMiddleware(deps.RedisClient, logger))

	payments := admin.Group("/payments")
	{
		payments.GET("", deps.PaymentHandler.List)
		payments.GET("/:id", deps.PaymentHandler.Get)
		payments.PUT("/:id/status", deps.PaymentHandler.UpdateStatus)
		payments.POST("/:id/validate", deps.PaymentHandler.ValidateByPaymentID)
		payments.PUT("/transaction/:tranId/status", deps.PaymentHandler.UpdateStatusByTranID)
		payments.POST("/transaction/:tranId/validate", deps.PaymentHandler.Validate)
	}

	return router
}
