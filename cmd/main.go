package main

import (
	"os"
	"os/signal"
	"syscall"

	configs "github.com/akwaba-digital/auth-service/config"
	"github.com/akwaba-digital/auth-service/internal/dto"
	"github.com/akwaba-digital/auth-service/internal/handler"
	"github.com/akwaba-digital/auth-service/internal/middleware"
	"github.com/akwaba-digital/auth-service/internal/repository"
	"github.com/akwaba-digital/auth-service/internal/router"
	"github.com/akwaba-digital/auth-service/internal/service"
	"github.com/akwaba-digital/auth-service/pkg/database"
	"github.com/akwaba-digital/auth-service/pkg/logger"
	"github.com/akwaba-digital/auth-service/pkg/redis"
	"go.uber.org/zap"
)

func main() {
	config, err := configs.LoadConfig()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	// Initialize Zap logger
	if err := logger.InitLogger(config.App.Environment); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	logger.GetLogger().Info("Application starting",
		zap.String("app_name", config.App.Name),
		zap.String("environment", config.App.Environment),
	)

	// Initialize database
	db, err := database.NewPostgresDB(database.Config{
		Host:            config.Database.Host,
		Port:            config.Database.Port,
		User:            config.Database.User,
		Password:        config.Database.Password,
		Database:        config.Database.Name,
		SSLMode:         config.Database.SSLMode,
		MaxIdleConns:    config.Database.MaxIdleConns,
		MaxOpenConns:    config.Database.MaxOpenConns,
		ConnMaxLifetime: config.Database.ConnMaxLifetime,
		ConnMaxIdleTime: config.Database.ConnMaxIdleTime,
	})
	if err != nil {
		logger.GetLogger().Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.CloseDB(db)

	// Run auto migrations
	if err := database.AutoMigrate(db); err != nil {
		logger.GetLogger().Fatal("Failed to run database migrations", zap.Error(err))
	}
	logger.GetLogger().Info("Database migrated successfully")

	// Initialize Redis client (token revocation store)
	redisClient, err := redis.NewClient(redis.Config{
		Host:         config.Redis.Host,
		Port:         config.Redis.Port,
		Password:     config.Redis.Password,
		DB:           config.Redis.Database,
		PoolSize:     config.Redis.PoolSize,
		MinIdleConns: config.Redis.MinIdleConns,
		DialTimeout:  config.Redis.DialTimeout,
		ReadTimeout:  config.Redis.ReadTimeout,
		WriteTimeout: config.Redis.WriteTimeout,
	}, logger.GetLogger())
	if err != nil {
		logger.GetLogger().Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	// Repositories
	userRepo := repository.NewUserRepository(db)

	// Services
	tokenService := service.NewTokenService(config.JWT.Secret, config.JWT.TokenTTL, redisClient)

	var smsSender service.SmsSender
	if config.SMS.AccountSID != "" {
		smsSender = service.NewTwilioSender(config.SMS.AccountSID, config.SMS.AuthToken, config.SMS.From, logger.GetLogger())
	} else {
		logger.GetLogger().Warn("No Twilio credentials configured, SMS messages will only be logged")
		smsSender = service.NewLogSender(logger.GetLogger())
	}

	authService := service.NewAuthService(
		userRepo,
		tokenService,
		smsSender,
		config.Verification.DefaultCountryCode,
		config.Verification.CodeTTL,
	)

	if err := dto.RegisterCustomValidators(); err != nil {
		logger.GetLogger().Fatal("Failed to register validators", zap.Error(err))
	}

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	// Middleware
	jwtMiddleware := middleware.NewJWTMiddleware(tokenService, userRepo)

	r := router.NewRouter(
		authHandler,
		healthHandler,
		jwtMiddleware,
		config,
	).SetupRoutes()

	go func() {
		logger.GetLogger().Info("Server starting",
			zap.String("port", config.App.Port),
			zap.String("host", "0.0.0.0"),
		)
		if err := r.Run(":" + config.App.Port); err != nil {
			logger.GetLogger().Fatal("Failed to start server",
				zap.Error(err),
				zap.String("port", config.App.Port),
			)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.GetLogger().Info("Shutting down server...")
}
