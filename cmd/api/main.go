package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finresolve/internal/cache"
	"finresolve/internal/config"
	"finresolve/internal/database"
	"finresolve/internal/handlers"
	"finresolve/internal/logger"
	"finresolve/internal/middleware"
	"finresolve/internal/services"
	"finresolve/internal/store"
	"finresolve/internal/sync"
	"finresolve/internal/validator"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "finresolve/internal/docs" // Import swagger docs
)

// @title           FinResolve API
// @version         1.0
// @description     FinResolve is a personal finance profile service that keeps income, spending, goals and budgets in sync across devices, with offline-tolerant persistence.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Custom request validators
	validator.Register()

	// Profile persistence: remote store plus local SQLite cache for
	// degraded-mode reads when the database is unreachable.
	db := dbManager.DB()
	profileStore := store.NewGormStore(db)
	profileCache, err := cache.NewSQLiteCache(appConfig.CachePath)
	if err != nil {
		return fmt.Errorf("failed to open profile cache: %w", err)
	}
	registry := sync.NewRegistry(profileStore, profileCache, appConfig.SyncDebounce)
	defer registry.Close()

	// Initialize services
	userService := services.NewUserService(db)
	budgetService := services.NewBudgetService(db)
	auditService := services.NewAuditService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	profileHandler := handlers.NewProfileHandler(registry)
	spendingHandler := handlers.NewSpendingHandler(registry, userService)
	goalHandler := handlers.NewGoalHandler(registry)
	budgetHandler := handlers.NewBudgetHandler(budgetService, auditService, registry)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
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

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Statement feed webhook, authenticated by API key rather than JWT
	feed := v1.Group("/feed")
	feed.Use(middleware.FeedAuthMiddleware(appConfig.FeedAPIKey))
	feed.POST("/statements", spendingHandler.ImportFeed)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/auth/me", authHandler.Me)

	// Profile routes
	profile := protected.Group("/profile")
	profile.GET("", profileHandler.GetProfile)
	profile.PUT("/income", profileHandler.UpdateIncome)
	profile.PUT("/name", profileHandler.UpdateName)
	profile.POST("/onboarding/complete", profileHandler.CompleteOnboarding)
	profile.POST("/reset", profileHandler.ResetProfile)

	// Spending routes
	spending := protected.Group("/spending")
	spending.POST("", spendingHandler.AddSpending)
	spending.GET("", spendingHandler.ListSpending)
	spending.POST("/import", spendingHandler.ImportStatement)
	spending.POST("/summaries", spendingHandler.AddSummary)
	spending.PUT("/summaries", spendingHandler.ReplaceSummaries)

	// Savings goal routes
	goals := protected.Group("/goals")
	goals.POST("", goalHandler.CreateGoal)
	goals.PATCH("/:id", goalHandler.UpdateGoal)
	goals.DELETE("/:id", goalHandler.DeleteGoal)

	// Budget routes
	budgets := protected.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.GET("/:id", budgetHandler.GetBudget)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)
	budgets.GET("/:id/progress", budgetHandler.GetBudgetProgress)

	srv := &http.Server{
		Addr:    ":" + appConfig.Port,
		Handler: router,
	}

	go func() {
		log.Infof("Starting FinResolve backend server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt, then flush pending profile writes before exit
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
