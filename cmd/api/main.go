package main

import (
	"log"

	"go.uber.org/zap"

	"habit-service/config"
	"habit-service/internal/api"
	"habit-service/internal/db"
	"habit-service/internal/mq"
	redisclient "habit-service/internal/redis"
	"habit-service/internal/repository"
	"habit-service/internal/service/auth"
	"habit-service/internal/service/habit"
	"habit-service/internal/util"
	"habit-service/internal/worker"
)

func main() {
	// Load config
	cfg := config.Load()

	logger := util.NewLogger()
	defer logger.Sync()

	// Apply schema migrations
	if err := db.Migrate(cfg.DB, logger); err != nil {
		logger.Fatal("Schema migration failed", zap.Error(err))
	}

	// Init DB
	dbConn, err := db.NewConnection(cfg.DB, logger)
	if err != nil {
		logger.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	// Init Redis
	rdb := redisclient.NewRedisClient(cfg.Redis)
	defer rdb.Close()

	// Init RabbitMQ Publisher
	producer, err := mq.NewProducer(cfg.MQ.URL)
	if err != nil {
		log.Fatalf("failed to init producer: %v", err)
	}
	defer producer.Close()

	// Init Repositories
	userRepo := repository.NewUserRepository(dbConn)
	habitRepo := repository.NewHabitRepository(dbConn, logger)
	completionRepo := repository.NewCompletionRepository(dbConn, logger)

	// Init Services
	authService := auth.NewService(userRepo, cfg.JWT.Secret)
	habitService := habit.NewService(habitRepo, completionRepo, producer, rdb, logger)

	// Daily streak refresh
	refresher := worker.NewStatsRefresher(habitService, logger)
	if err := refresher.Start(); err != nil {
		logger.Fatal("Failed to start stats refresher", zap.Error(err))
	}
	defer refresher.Stop()

	// Init Handlers
	authHandler := api.NewAuthHandler(authService, logger)
	habitHandler := api.NewHabitHandler(habitService, logger)
	completionHandler := api.NewCompletionHandler(habitService, logger)
	gamificationHandler := api.NewGamificationHandler(habitService, logger)

	// Router
	router := api.NewRouter(authHandler, habitHandler, completionHandler, gamificationHandler, cfg.JWT.Secret, dbConn)

	// Start API server
	if err := router.Run(cfg.Server.Port); err != nil {
		logger.Fatal("server start failed", zap.Error(err))
	}
}
