package main

import (
	"context" // context package is needed for Redis operations
	"log"     // log package is needed for logging

	"money_service/internal/api"        // Custom package for API handlers
	"money_service/internal/auth"       // Custom package for session middleware
	"money_service/internal/config"     // Custom package for configuration
	"money_service/internal/middleware" // Custom package for middleware
	"money_service/internal/negotiate"  // Custom package for content negotiation
	"money_service/internal/notify"     // Custom package for notification registry
	"money_service/internal/web"        // Custom package for HTML shell pages

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
	"gorm.io/driver/mysql"         // MySQL driver for GORM
	"gorm.io/gorm"                 // GORM ORM library
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Connect to the database; TranslateError maps duplicate-key failures
	// onto gorm.ErrDuplicatedKey for the registration conflict path
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Test Redis connection
	_, err = redisClient.Ping(context.Background()).Result()
	if err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	registry := notify.NewRegistry() // Pending notification connections

	// Setup Gin
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger())

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	// Plain routes: no negotiation, no session
	r.GET("/css", web.CSSHandler())                     // Static stylesheet
	r.POST("/register_form", web.RegisterFormHandler()) // Signup form fragment
	r.POST("/login_form", web.LoginFormHandler())       // Login form fragment

	// Negotiated routes: classified once, rejected with 415 otherwise
	negotiated := r.Group("")
	negotiated.Use(negotiate.Middleware())
	negotiated.POST("/register", api.RegisterHandler(db)) // Registration endpoint
	negotiated.POST("/login", api.LoginHandler(db))       // Login endpoint

	// Session-aware routes: an optional subject is resolved per request
	session := negotiated.Group("")
	session.Use(auth.Middleware(db))
	session.GET("/", web.IndexHandler(db))                     // Landing page
	session.POST("/logout", api.LogoutHandler(db, redisClient)) // Logout endpoint

	// Transaction API (session required inside the handlers)
	apiGroup := session.Group("/api")
	apiGroup.POST("/get_displayname", api.DisplayNameHandler(db, redisClient))       // Token to display name
	apiGroup.POST("/request_transaction", api.RequestTransactionHandler(db))         // Create endpoint
	apiGroup.POST("/accept_transaction/:id", api.AcceptTransactionHandler(db, registry)) // Accept endpoint
	apiGroup.POST("/reject_transaction/:id", api.RejectTransactionHandler(db, registry)) // Reject endpoint
	apiGroup.GET("/notify_transaction/:id", api.NotifyTransactionHandler(db, registry))  // Notification socket

	log.Println("Server running on " + cfg.AppPort) // Log server start
	r.Run(":" + cfg.AppPort)                        // Start the server on port cfg.AppPort
}
