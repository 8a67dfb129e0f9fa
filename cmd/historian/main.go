// cmd/historian/main.go is an asynchronous historian service that pops simulation
// results from a Redis queue and persists them to a PostgreSQL database.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/card-roulette/internal/cache"
	"github.com/jason-s-yu/card-roulette/internal/config"
	"github.com/jason-s-yu/card-roulette/internal/database"
	"github.com/jason-s-yu/card-roulette/internal/historian"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		logrus.Fatalf("logger: %v", err)
	}
	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL must be set")
	}
	redisAddr := cfg.RedisAddr
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("connect database: %v", err)
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		logger.Fatalf("schema: %v", err)
	}

	rdb, err := cache.Connect(redisAddr, cfg.RedisDB)
	if err != nil {
		logger.Fatalf("connect redis: %v", err)
	}
	defer rdb.Close()

	svc := historian.NewService(
		cache.NewQueue(rdb, cfg.QueueName, logger),
		database.NewStore(pool),
		cfg.HistorianBatchSize,
		time.Duration(cfg.HistorianFlushMs)*time.Millisecond,
		logger,
	)
	if err := svc.Run(ctx); err != nil {
		logger.Errorf("historian: %v", err)
	}
	logger.Info("Historian shutdown complete.")
}
