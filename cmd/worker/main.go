package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/joho/godotenv"

	"finrota.com/app/internal/app"
	"finrota.com/app/internal/scheduler"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Bootstrap(ctx, logger, app.Options{SnapshotGSM: true})
	if err != nil {
		log.Fatalf("bootstrap failed: %v", err)
	}

	w := &scheduler.Worker{
		Repo:         a.TaskRepo,
		Handler:      a.RefundSvc,
		Logger:       logger,
		Metrics:      a.Metrics,
		Interval:     5 * time.Second,
		Concurrency:  4,
		RetryDelay:   time.Minute,
		LeaseTimeout: 5 * time.Minute,
	}

	logger.Info("refund worker started")
	w.Run(ctx)
	logger.Info("refund worker stopped")
}
