package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/kendall-kelly/tee-store-api/config"
	"github.com/kendall-kelly/tee-store-api/controllers"
	"github.com/kendall-kelly/tee-store-api/middleware"
	"github.com/kendall-kelly/tee-store-api/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server stopped with error", zap.Error(err))
	}
	logger.Info("Server stopped")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting Tee Store API server...", zap.String("port", cfg.Port))
	ctx := context.Background()

	db, err := config.ConnectDatabase(cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	if err := config.Migrate(db); err != nil {
		return err
	}
	logger.Info("Database migration completed successfully")

	storage, err := services.NewS3StorageService(ctx, cfg, logger)
	if err != nil {
		return err
	}

	backends := services.Backends{
		DB:       db,
		Storage:  storage,
		Verifier: services.NewHTTPPaymentVerifier(cfg.PaymentVerifyURL, cfg.PaymentVerifyToken),
		UserInfo: services.NewAuth0Service(cfg.Auth0Domain),
		Locker:   services.NewLocalLocker(),
		Audit:    services.NewMemoryAuditLog(),
	}

	// Redis serializes order updates across instances
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = services.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		backends.Locker = services.NewRedisLocker(redisClient, func(key string, err error) {
			logger.Warn("Failed to release lock", zap.String("key", key), zap.Error(err))
		})
		logger.Info("Using redis locks", zap.String("addr", cfg.RedisAddr))
	} else {
		logger.Warn("REDIS_ADDR not set, order locks are local to this instance")
	}

	if cfg.MongoURI != "" {
		audit, err := services.NewMongoAuditLog(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoAuditCollection)
		if err != nil {
			return err
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := audit.Close(closeCtx); err != nil {
				logger.Warn("Failed to close mongodb client", zap.Error(err))
			}
		}()
		backends.Audit = audit
		logger.Info("Using mongodb audit log", zap.String("database", cfg.MongoDatabase))
	} else {
		logger.Warn("MONGODB_URI not set, audit history is kept in memory")
	}

	jwtValidator, err := middleware.NewValidator(cfg.Auth0Domain, cfg.Auth0Audience)
	if err != nil {
		return err
	}

	svc := services.New(cfg, backends, logger)
	auth := controllers.Auth{
		Required: middleware.EnsureValidToken(jwtValidator, logger),
		Optional: middleware.OptionalToken(jwtValidator, logger),
		Admin:    middleware.RequireAdmin(svc.Profiles, logger),
	}
	router := setupRouter(cfg, db, controllers.NewHandlers(svc, logger), auth, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server is running", zap.String("addr", "http://localhost:"+cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-serverErr:
		return fmt.Errorf("failed to start server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// setupRouter builds the gin engine with CORS, request logging and every route
func setupRouter(cfg *config.Config, db *gorm.DB, handlers controllers.Handlers, auth controllers.Auth, logger *zap.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	v1 := router.Group("/api/v1")
	{
		// Health check endpoint
		v1.GET("/health", healthCheck)

		// Database status endpoint
		v1.GET("/database/status", databaseStatus(db))
	}
	controllers.RegisterRoutes(v1, handlers, auth)

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Tee Store API is running",
	})
}

// databaseStatus checks database connectivity and lists the tables
func databaseStatus(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_ERROR",
					"message": "Failed to get database instance",
				},
			})
			return
		}

		if err := sqlDB.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_CONNECTION_ERROR",
					"message": "Database connection failed",
				},
			})
			return
		}

		tables, err := db.WithContext(c.Request.Context()).Migrator().GetTables()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_QUERY_ERROR",
					"message": "Failed to query tables",
				},
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Database connected",
			"dialect": db.Dialector.Name(),
			"tables":  tables,
		})
	}
}
