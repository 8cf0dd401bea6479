// Package server assembles the HTTP router from configuration and a database
// handle.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"spendwise/internal/config"
	_ "spendwise/internal/docs" // Import swagger docs
	apperrors "spendwise/internal/errors"
	"spendwise/internal/handlers"
	"spendwise/internal/middleware"
	"spendwise/internal/repository"
	"spendwise/internal/services"
	"spendwise/internal/validator"
)

// NewRouter wires repositories, services, and handlers onto a gin engine.
func NewRouter(cfg *config.Config, db *gorm.DB) *gin.Engine {
	validator.Register()

	// Initialize services
	expenseRepo := repository.NewExpenseRepository(db)
	userService := services.NewUserService(db)
	auditService := services.NewAuditService(db)
	expenseService := services.NewExpenseService(expenseRepo)
	summaryService := services.NewSummaryService(expenseRepo, services.SummaryOptions{
		Location:        cfg.Location,
		DailyWindowDays: cfg.DailyWindowDays,
		RecentLimit:     cfg.RecentLimit,
	})

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, cfg.JWTSecret, cfg.JWTExpirationDur)
	expenseHandler := handlers.NewExpenseHandler(expenseService, summaryService, auditService, cfg.Location)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	router.NoRoute(func(c *gin.Context) {
		_ = c.Error(apperrors.ErrNotFound)
	})

	// Swagger documentation
	if !cfg.IsProduction() {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	protected.GET("/auth/me", authHandler.Me)

	expenses := protected.Group("/expenses")
	expenses.GET("", expenseHandler.ListExpenses)
	expenses.POST("", expenseHandler.CreateExpense)
	expenses.GET("/summary", expenseHandler.GetSummary)
	expenses.GET("/categories", expenseHandler.ListCategories)
	expenses.GET("/:id", expenseHandler.GetExpense)
	expenses.PUT("/:id", expenseHandler.UpdateExpense)
	expenses.DELETE("/:id", expenseHandler.DeleteExpense)

	return router
}
