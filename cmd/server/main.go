package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Baaaki/yamdb/internal/config"
	"github.com/Baaaki/yamdb/internal/database"
	"github.com/Baaaki/yamdb/internal/handler"
	"github.com/Baaaki/yamdb/internal/mailer"
	"github.com/Baaaki/yamdb/internal/middleware"
	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/Baaaki/yamdb/internal/service"
	"github.com/Baaaki/yamdb/internal/utils"
	"github.com/Baaaki/yamdb/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	if err := logger.Init(!cfg.IsProduction()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	logger.Log.Info("Config loaded successfully", zap.String("environment", cfg.Environment))

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to connect database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Log.Fatal("Failed to migrate database", zap.Error(err))
	}

	mail, err := mailer.New(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to configure mail", zap.Error(err))
	}

	// Rate limiter for /v1/auth: shared through Redis when configured
	limiterConfig := middleware.RateLimiterConfig{
		MaxRequests: cfg.RateLimitMaxRequests,
		Window:      cfg.RateLimitWindow,
	}
	var authLimiter middleware.Limiter = middleware.NewLocalLimiter(limiterConfig)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Log.Fatal("Invalid REDIS_URL", zap.Error(err))
		}
		redisClient := redis.NewClient(opts)
		defer redisClient.Close()

		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Log.Warn("Redis unreachable, rate limiter will fail open until it recovers", zap.Error(err))
		}
		authLimiter = middleware.NewRedisLimiter(redisClient, limiterConfig)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	titleRepo := repository.NewTitleRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	genreRepo := repository.NewGenreRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	// Initialize services
	codes := utils.NewCodeGenerator(cfg.JWTSecret, cfg.ConfirmationCodeTTL)
	reviewService := service.NewReviewService(reviewRepo, titleRepo)

	router := handler.SetupRouter(handler.Dependencies{
		JWTSecret:    cfg.JWTSecret,
		PageSize:     cfg.PageSize,
		CORSOrigins:  cfg.CORSOrigins,
		IsProduction: cfg.IsProduction(),
		Users:        userRepo,
		AuthLimiter:  authLimiter,

		Auth:       service.NewAuthService(userRepo, codes, mail, cfg.JWTSecret, cfg.JWTExpiry),
		UserSvc:    service.NewUserService(userRepo),
		Categories: service.NewCategoryService(categoryRepo),
		Genres:     service.NewGenreService(genreRepo),
		Titles:     service.NewTitleService(titleRepo, categoryRepo, genreRepo),
		Reviews:    reviewService,
		Comments:   service.NewCommentService(commentRepo, reviewService),
	})

	srv := &http.Server{
		Addr:              cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Server starting", zap.String("addr", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Graceful shutdown failed", zap.Error(err))
	}
}
