// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/modelmart/modelmart-backend/internal/config"
	"github.com/modelmart/modelmart-backend/internal/handlers"
	"github.com/modelmart/modelmart-backend/internal/middleware"
	"github.com/modelmart/modelmart-backend/internal/services"
	"github.com/modelmart/modelmart-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	eventService := services.NewEventService(db)
	accessService := services.NewAccessService(db, eventService)
	registryService := services.NewRegistryService(db, accessService, eventService)
	treasuryService := services.NewTreasuryService(db, cfg)
	marketService := services.NewMarketService(db, registryService, accessService, treasuryService, eventService)
	authService := services.NewAuthService(db, cfg)

	contentService, err := services.NewContentService(cfg)
	if err != nil {
		logrus.WithError(err).Warn("Content metadata resolution disabled")
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	modelHandler := handlers.NewModelHandler(registryService, contentService)
	marketHandler := handlers.NewMarketHandler(marketService)
	paymentHandler := handlers.NewPaymentHandler(treasuryService)
	adminHandler := handlers.NewAdminHandler(accessService, marketService)
	eventHandler := handlers.NewEventHandler(eventService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.GeneralRateLimit())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.GET("/me", middleware.AuthRequired(), authHandler.Me)
		}

		// Model registry routes
		modelsGroup := v1.Group("/models")
		{
			modelsGroup.GET("", modelHandler.Search)
			modelsGroup.GET("/count", modelHandler.Count)
			modelsGroup.GET("/:id", modelHandler.Get)
			modelsGroup.GET("/:id/metadata", modelHandler.Metadata)
			modelsGroup.GET("/:id/events", eventHandler.ModelEvents)
			modelsGroup.GET("/:id/listings/copies", marketHandler.GetCopySaleDetails)
			modelsGroup.GET("/:id/listings/subscription", marketHandler.GetSubscriptionListing)
			modelsGroup.GET("/:id/subscription/:subscriber", marketHandler.CheckSubscription)

			// Authenticated routes
			protected := modelsGroup.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("", middleware.RegisterRateLimit(), modelHandler.Register)
				protected.PUT("/:id/content-hash", modelHandler.UpdateContentHash)
				protected.PUT("/:id/sale-type", modelHandler.SetSaleType)
				protected.POST("/:id/listings/copies", marketHandler.ListForCopies)
				protected.POST("/:id/listings/subscription", marketHandler.ListForSubscription)
				protected.POST("/:id/purchase", marketHandler.BuyCopy)
				protected.POST("/:id/subscribe", marketHandler.Subscribe)
			}
		}

		// Market configuration (public)
		market := v1.Group("/market")
		{
			market.GET("/fee-config", adminHandler.GetFeeConfig)
		}

		// Ledger event routes (public, for indexers)
		events := v1.Group("/events")
		{
			events.GET("", eventHandler.Search)
		}

		// Payment routes
		payments := v1.Group("/payments")
		payments.Use(middleware.AuthRequired())
		{
			payments.POST("/deposit", paymentHandler.CreateDeposit)
			payments.POST("/deposit/confirm", paymentHandler.ConfirmDeposit)
			payments.GET("/balance", paymentHandler.Balance)
			payments.GET("/transfers", paymentHandler.Transfers)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired(accessService))
		{
			admin.GET("/stats", adminHandler.GetPlatformStats)
			admin.GET("/operators", adminHandler.ListOperators)
			admin.POST("/operators", adminHandler.AddOperator)
			admin.DELETE("/operators/:id", adminHandler.RemoveOperator)
			admin.POST("/transfer", adminHandler.TransferAdmin)
			admin.PUT("/fees/percent", adminHandler.SetFeePercent)
			admin.PUT("/fees/recipient", adminHandler.SetFeeRecipient)
			admin.POST("/fees/withdraw", adminHandler.WithdrawFees)
		}
	}

	return r
}
