package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sparkserve/bookingapi/internal/api/handlers"
	"github.com/sparkserve/bookingapi/internal/api/middleware"
	"github.com/sparkserve/bookingapi/internal/config"
	"github.com/sparkserve/bookingapi/internal/repository"
)

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, repos *repository.Repositories, logger *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-API-Key"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes
	v1 := router.Group("/v1")
	{
		// Customer routes (require authentication)
		userRoutes := v1.Group("")
		userRoutes.Use(middleware.AuthMiddleware(cfg.Auth, logger))
		{
			userRoutes.GET("/cart", handlers.HandleGetCart(cfg, repos, logger))
			userRoutes.POST("/cart", handlers.HandleAddCartItem(cfg, repos, logger))
			userRoutes.PUT("/cart/:itemId", handlers.HandleUpdateCartItem(cfg, repos, logger))
			userRoutes.DELETE("/cart/:itemId", handlers.HandleRemoveCartItem(cfg, repos, logger))
			userRoutes.DELETE("/cart", handlers.HandleClearCart(cfg, repos, logger))
			userRoutes.POST("/cart/sync", handlers.HandleSyncCart(cfg, repos, logger))

			userRoutes.POST("/orders", handlers.HandleCreateOrder(cfg, repos, logger))
			userRoutes.GET("/orders", handlers.HandleListOrders(cfg, repos, logger))
			userRoutes.GET("/orders/:id", handlers.HandleGetOrder(cfg, repos, logger))
			userRoutes.PUT("/orders/:id/cancel", handlers.HandleCancelOrder(cfg, repos, logger))
			userRoutes.POST("/orders/:id/review", handlers.HandleSubmitReview(cfg, repos, logger))
		}

		// Payment gateway callback (authenticated by API key, not user token)
		paymentRoutes := v1.Group("")
		paymentRoutes.Use(middleware.AdminAuthMiddleware(repos, logger))
		{
			paymentRoutes.PUT("/orders/:id/payment", handlers.HandlePaymentUpdate(cfg, repos, logger))
		}

		// Admin routes
		adminRoutes := v1.Group("/admin")
		adminRoutes.Use(middleware.AdminAuthMiddleware(repos, logger))
		{
			adminRoutes.GET("/orders", handlers.HandleAdminListOrders(cfg, repos, logger))
			adminRoutes.POST("/orders/:id/confirm", handlers.HandleConfirmOrder(cfg, repos, logger))
			adminRoutes.POST("/orders/:id/assign", handlers.HandleAssignOrder(cfg, repos, logger))
			adminRoutes.POST("/orders/:id/start", handlers.HandleStartOrder(cfg, repos, logger))
			adminRoutes.POST("/orders/:id/complete", handlers.HandleCompleteOrder(cfg, repos, logger))

			adminRoutes.GET("/services", handlers.HandleListServices(repos, logger))
			adminRoutes.POST("/services", handlers.HandleCreateService(repos, logger))
			adminRoutes.POST("/packages", handlers.HandleCreatePackage(repos, logger))
			adminRoutes.POST("/addons", handlers.HandleCreateAddOn(repos, logger))
			adminRoutes.POST("/coupons", handlers.HandleCreateCoupon(repos, logger))
		}
	}

	return router
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
		)
	}
}
