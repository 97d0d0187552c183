package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hospitalhub/profile-intake/internal/config"
	"github.com/hospitalhub/profile-intake/internal/database"
	"github.com/hospitalhub/profile-intake/internal/handlers"
	"github.com/hospitalhub/profile-intake/internal/middleware"
	"github.com/hospitalhub/profile-intake/internal/services"
	"github.com/hospitalhub/profile-intake/pkg/imagehost"
	"github.com/hospitalhub/profile-intake/pkg/jwt"
	"github.com/hospitalhub/profile-intake/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting hospital profile intake service")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics("hospital_intake", registry)

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	if cfg.Database.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.EnsureSchema(ctx, db)
		cancel()
		if err != nil {
			logger.Fatalf("Failed to prepare schema: %v", err)
		}
		logger.Info("Database schema is up to date")
	}

	// Initialize repositories
	profileRepository := database.NewHospitalProfileRepository(db, m)
	auditRepository := database.NewReviewAuditRepository(db, logger)

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)
	adminAuthService, err := services.NewAdminAuthService(cfg.Admin, jwtService, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize admin authentication: %v", err)
	}

	auditService := services.NewAuditService(auditRepository, logger)
	publicProjection := services.NewPublicProjection(profileRepository, cfg.Public.CacheTTL, m, logger)
	submissionService := services.NewSubmissionService(profileRepository, m, logger)
	reviewService := services.NewReviewService(profileRepository, auditService, publicProjection, m, logger)

	cronService := services.NewCronService(auditService, cfg.Maintenance, logger)
	if err := cronService.Start(); err != nil {
		logger.Fatalf("Failed to start cron service: %v", err)
	}

	cloudinary := imagehost.CloudinaryConfig{
		CloudName: cfg.ImageHost.CloudName,
		APIKey:    cfg.ImageHost.APIKey,
		APISecret: cfg.ImageHost.APISecret,
		Folder:    cfg.ImageHost.Folder,
	}
	if missing := cloudinary.Missing(); len(missing) > 0 {
		logger.WithField("missing", missing).Warn("Image host not configured, uploads will be rejected")
	}
	imageClient := imagehost.NewClient(cloudinary, 60*time.Second)

	// Initialize handlers
	submissionHandler := handlers.NewSubmissionHandler(submissionService, publicProjection, logger)
	uploadHandler := handlers.NewUploadHandler(cloudinary, imageClient, cfg.ImageHost.UploadMaxBytes, m, logger)
	adminAuthHandler := handlers.NewAdminAuthHandler(adminAuthService, cfg.Admin.CookieSecure, logger)
	adminHandler := handlers.NewAdminHandler(reviewService, auditService, logger)
	dashboardHandler := handlers.NewDashboardHandler(reviewService, logger)

	// Setup Gin router
	router := gin.New()

	templates, err := handlers.LoadTemplates()
	if err != nil {
		logger.Fatalf("Failed to parse admin templates: %v", err)
	}
	router.SetHTMLTemplate(templates)

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(requestLogger(logger))
	router.Use(middleware.RequestMetrics(m))

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check and metrics
	router.GET("/health", healthCheckHandler(db))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst, m)

	// Public intake API
	api := router.Group("/api")
	{
		api.POST("/submit", limiter.Middleware("submit"), submissionHandler.Submit)
		api.GET("/hospitals", submissionHandler.ListApproved)
		api.GET("/cloudinary-signature", limiter.Middleware("signature"), uploadHandler.Signature)
		api.POST("/upload", limiter.Middleware("upload"), uploadHandler.Upload)
	}

	v1 := router.Group("/api/v1")
	{
		v1.POST("/hospitals", limiter.Middleware("submit"), submissionHandler.Submit)
		v1.GET("/hospitals", submissionHandler.ListApproved)

		v1.POST("/admin/auth/login", limiter.Middleware("admin_login"), adminAuthHandler.Login)

		adminAPI := v1.Group("/admin")
		adminAPI.Use(middleware.RequireAdmin(adminAuthService, middleware.ModeAPI, logger))
		{
			adminAPI.GET("/hospitals", adminHandler.ListHospitals)
			adminAPI.GET("/hospitals/:id", adminHandler.GetHospital)
			adminAPI.GET("/hospitals/:id/audit", adminHandler.History)
			adminAPI.POST("/hospitals/:id/status", adminHandler.UpdateStatus)
			adminAPI.DELETE("/hospitals/:id", adminHandler.DeleteHospital)
			adminAPI.GET("/stats", adminHandler.Stats)
		}
	}

	// Server-rendered admin pages
	router.GET(middleware.AdminLoginPath, adminAuthHandler.LoginPage)
	router.POST(middleware.AdminLoginPath, limiter.Middleware("admin_login"), adminAuthHandler.LoginForm)
	router.POST("/admin/logout", adminAuthHandler.Logout)

	adminPages := router.Group("/admin")
	adminPages.Use(middleware.RequireAdmin(adminAuthService, middleware.ModeHTML, logger))
	{
		adminPages.GET("", dashboardHandler.Index)
		adminPages.POST("", dashboardHandler.Act)
		adminPages.GET("/hospitals/:id", dashboardHandler.Show)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second, // uploads wait on the image host
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cronService.Stop()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := logrus.Fields{
			"request_id": middleware.GetRequestID(c),
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      c.Request.URL.RawQuery,
			"ip":         c.ClientIP(),
			"latency_ms": time.Since(start).Milliseconds(),
			"user_agent": c.Request.UserAgent(),
			// never the token itself
			"has_auth": c.GetHeader("Authorization") != "",
		}

		if principal, ok := middleware.GetAdminPrincipal(c); ok {
			fields["admin"] = principal.Username
		}

		entry := logger.WithFields(fields)

		if len(c.Errors) > 0 {
			for i, err := range c.Errors {
				entry = entry.WithField(fmt.Sprintf("error_%d", i), err.Error())
			}
			entry.Error("Request failed with errors")
			return
		}

		status := c.Writer.Status()
		switch {
		case status >= 500:
			entry.Error("Request completed with server error")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
