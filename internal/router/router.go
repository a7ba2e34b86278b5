// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/wheeldeal/wheeldeal-backend/internal/config"
	"github.com/wheeldeal/wheeldeal-backend/internal/handlers"
	"github.com/wheeldeal/wheeldeal-backend/internal/middleware"
	"github.com/wheeldeal/wheeldeal-backend/internal/services"
	"github.com/wheeldeal/wheeldeal-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	notificationService := services.NewNotificationService(db, cfg)
	storageService, _ := services.NewStorageService(cfg)
	agentDirectory := services.NewAgentDirectory(db, cfg.Marketplace.AgentEmails)

	listingService := services.NewListingService(db, agentDirectory, notificationService)
	purchaseService := services.NewPurchaseService(db, notificationService)
	analyticsService := services.NewAnalyticsService(db)

	// Initialize handlers
	sellHandler := handlers.NewSellHandler(listingService, storageService)
	agentHandler := handlers.NewAgentHandler(listingService)
	purchaseHandler := handlers.NewPurchaseHandler(purchaseService)
	carHandler := handlers.NewCarHandler(listingService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	adminHandler := handlers.NewAdminHandler(analyticsService)

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

	// Public browse routes
	cars := r.Group("/cars")
	{
		cars.GET("", carHandler.ListCars)
		cars.GET("/:id", middleware.OptionalAuth(), carHandler.GetCar)
	}

	// Seller routes
	sell := r.Group("/sell")
	sell.Use(middleware.AuthRequired())
	{
		sell.POST("", sellHandler.CreateListing)
		sell.GET("/my", sellHandler.GetMyListings)
		sell.POST("/upload-photos", middleware.UploadRateLimit(), sellHandler.UploadPhotos)
	}

	// Agent routes
	agent := r.Group("/agent")
	agent.Use(middleware.AuthRequired(), middleware.AgentRequired())
	{
		agent.GET("/assigned", agentHandler.GetAssigned)
		agent.POST("/accept/:id", agentHandler.AcceptVerification)
		agent.GET("/verification", agentHandler.GetVerificationQueue)
		agent.POST("/approve/:id", agentHandler.ApproveListing)
		agent.POST("/reject/:id", agentHandler.RejectListing)
	}

	// Purchase routes
	purchase := r.Group("/purchase")
	purchase.Use(middleware.AuthRequired())
	{
		purchase.POST("/create", purchaseHandler.CreatePurchase)
		purchase.PATCH("/:id/status", purchaseHandler.UpdateStatus)
		purchase.GET("/my", purchaseHandler.GetMyPurchases)
	}

	// Notification inbox
	notifications := r.Group("/notifications")
	notifications.Use(middleware.AuthRequired())
	{
		notifications.GET("", notificationHandler.ListNotifications)
		notifications.PATCH("/:id/read", notificationHandler.MarkRead)
		notifications.DELETE("/:id", notificationHandler.DeleteNotification)
	}

	// Admin routes
	admin := r.Group("/admin")
	admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
	{
		admin.GET("/dashboard/stats", adminHandler.GetDashboardStats)
		admin.GET("/agents/performance", adminHandler.GetAgentPerformance)
	}

	// Static file serving (for development)
	if cfg.Environment == "development" {
		r.Static("/uploads", "./uploads")
	}

	return r
}
