package main

import (
	"fmt"
	"log"

	"leak-detection-api/config"
	"leak-detection-api/handlers"
	"leak-detection-api/middleware"
	"leak-detection-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.GetDSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get sql db handle: %v", err)
	}
	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	// Redis cache + pub/sub (degrades to cache misses when down)
	cache, err := services.NewCacheService(cfg.Redis)
	if err != nil {
		log.Printf("Redis unavailable, continuing without cache: %v", err)
	}
	defer cache.Close()

	authService := services.NewAuthService(cfg.JWT)
	detectionService := services.NewDetectionService(db, cache, cfg.Detection)

	authHandler := handlers.NewAuthHandler(db, authService)
	readingsHandler := handlers.NewReadingsHandler(db, cache, detectionService)
	sensorsHandler := handlers.NewSensorsHandler(db, cache)
	leaksHandler := handlers.NewLeaksHandler(db, cache)
	alertsHandler := handlers.NewAlertsHandler(db, cache)

	// Initialize Gin router
	router := gin.Default()
	router.Use(middleware.SetupCORS(cfg.CORS))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "UP",
			"message": "Leak Detection API is running",
		})
	})

	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", authHandler.Logout)
	}

	api := router.Group("/api/v1")
	api.Use(middleware.RequireAuth(authService))
	{
		api.POST("/readings", readingsHandler.Ingest)
		api.GET("/readings", readingsHandler.GetReadings)
		api.GET("/sensors", sensorsHandler.GetSensors)
		api.GET("/leaks", leaksHandler.GetLeaks)
		api.PATCH("/leaks/:id/status", leaksHandler.UpdateStatus)
		api.GET("/alerts", alertsHandler.GetAlerts)
		api.POST("/alerts/:id/ack", alertsHandler.Acknowledge)
	}

	// Websocket authenticates via query token instead of the Bearer header
	router.GET("/api/v1/live", handlers.LiveAlerts(cache, authService, cfg.Detection.AlertChannel))

	// Start server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Starting server on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
