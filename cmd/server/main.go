package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"ecoscan/internal/config"
	"ecoscan/internal/handler"
	"ecoscan/internal/middleware"
	"ecoscan/internal/model"
	"ecoscan/internal/repository"
	"ecoscan/internal/service"
	"ecoscan/internal/session"
	"ecoscan/internal/storage"
	"ecoscan/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found or error loading, relying on environment variables")
	}

	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load config")
	}

	logger := newLogger("ecoscan", cfg.Env)

	// --- Durable collections ---
	if err := os.MkdirAll(cfg.DataDir, os.ModePerm); err != nil {
		logger.WithError(err).Fatalf("Failed to create data directory %s", cfg.DataDir)
	}
	logger.WithField("dir", cfg.DataDir).Info("Collections will be stored in data directory")

	users, err := storage.Open[model.User](cfg.DataDir, "users", logger)
	if err != nil {
		fatalOnOpen(logger, "users", err)
	}
	listings, err := storage.Open[model.Listing](cfg.DataDir, "listings", logger)
	if err != nil {
		fatalOnOpen(logger, "listings", err)
	}
	feedback, err := storage.Open[model.Feedback](cfg.DataDir, "feedback", logger)
	if err != nil {
		fatalOnOpen(logger, "feedback", err)
	}

	// --- Initialize Utilities ---
	jwtUtil := utils.NewJWTUtil(cfg.JWTSecret, cfg.JWTExpirationHours)
	sessions := session.NewManager(cfg.SessionTimeout)

	// --- Initialize Repositories ---
	userRepo := repository.NewUserRepository(users)
	listingRepo := repository.NewListingRepository(listings)
	feedbackRepo := repository.NewFeedbackRepository(feedback)

	// --- Initialize Services ---
	adminCreds := service.AdminCredentials{Phone: cfg.AdminPhone, Password: cfg.AdminPassword}
	authService := service.NewAuthService(userRepo, sessions, jwtUtil, adminCreds, cfg.SignupBonusPoints, logger)
	pointsService := service.NewPointsService(userRepo)
	listingService := service.NewListingService(listingRepo, userRepo, pointsService, cfg.ListingRewardPoints, logger)
	feedbackService := service.NewFeedbackService(feedbackRepo)

	// --- Initialize Handlers ---
	sessionHandler := handler.NewSessionHandler(sessions)
	authHandler := handler.NewAuthHandler(authService, sessions)
	listingHandler := handler.NewListingHandler(listingService)
	pointsHandler := handler.NewPointsHandler(pointsService)
	feedbackHandler := handler.NewFeedbackHandler(feedbackService)

	// --- Setup Gin Router ---
	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	// Simple CORS middleware (allow all for development)
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-Session-ID, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	// --- Initialize Middlewares ---
	sessionMW := middleware.SessionMiddleware(sessions)
	jwtAuthMW := middleware.JWTAuthMiddleware(jwtUtil)
	authSessionMW := middleware.AuthSessionMiddleware(sessions)
	adminRoleMW := middleware.AdminMiddleware()

	// --- Register Routes ---
	apiGroup := router.Group("/api/v1")
	sessionHandler.RegisterSessionRoutes(apiGroup, sessionMW)
	authHandler.RegisterAuthRoutes(apiGroup, sessionMW, jwtAuthMW, authSessionMW)
	listingHandler.RegisterListingRoutes(apiGroup, jwtAuthMW, authSessionMW, adminRoleMW)
	pointsHandler.RegisterPointsRoutes(apiGroup, jwtAuthMW, authSessionMW)
	feedbackHandler.RegisterFeedbackRoutes(apiGroup, sessionMW, jwtAuthMW, authSessionMW, adminRoleMW)

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		// The data directory must stay writable for any mutation to land
		probe := filepath.Join(cfg.DataDir, ".health")
		if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "storage": "unhealthy"})
			return
		}
		os.Remove(probe)
		c.JSON(http.StatusOK, gin.H{"status": "ok", "storage": "healthy"})
	})

	// --- Start Server ---
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		logger.WithField("port", cfg.ServerPort).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("listen")
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exiting")
}

func newLogger(appName, env string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if env == "development" {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	logger.WithFields(logrus.Fields{"app": appName, "env": env}).Info("logger initialized")
	return logger
}

// fatalOnOpen refuses to start over a corrupt collection file rather
// than silently treating it as empty; the file is left in place for the
// operator to inspect or restore.
func fatalOnOpen(logger *logrus.Logger, name string, err error) {
	if errors.Is(err, storage.ErrCorrupt) {
		logger.WithError(err).Fatalf("Collection %s is corrupt; repair or remove the file and restart", name)
	}
	logger.WithError(err).Fatalf("Failed to open collection %s", name)
}
