// Command main consumes domain events from RabbitMQ and turns them into
// activity notifications for the actor's friends.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"mundotango/internal/cache"
	"mundotango/internal/config"
	"mundotango/internal/database"
	"mundotango/internal/notifications"
	"mundotango/internal/observability"
	"mundotango/internal/queue"
	"mundotango/internal/repository"
	"mundotango/internal/service"

	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	observability.SetLogger(observability.NewLogger(observability.LogConfig{
		Env:            cfg.Env,
		Level:          slog.LevelInfo,
		FilterPatterns: cfg.FilterPatterns(),
	}))
	logger := observability.Logger.With("component", "worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is not set; nothing to consume")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	// Without Redis the worker still stores notifications; they are simply
	// not pushed to open sockets.
	rdb, err := cache.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Warn("redis unavailable, notifications will not be pushed", "error", err)
		rdb = nil
	}

	notifier := notifications.NewNotifier(rdb, nil)
	recorder := service.NewActivityRecorder(
		repository.NewFriendRepository(db),
		service.NewNotificationService(repository.NewNotificationRepository(db), notifier, rdb, cfg.MediaBaseURL),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("consuming activity events", "queue", queue.ActivityQueue)
		return queue.Consume(gctx, cfg.AMQPURL, recorder.Handle)
	})

	err = g.Wait()
	if sqlDB, derr := db.DB(); derr == nil {
		_ = sqlDB.Close()
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("worker stopped")
}
