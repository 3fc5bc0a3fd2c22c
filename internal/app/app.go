// Package app wires the refund engine's collaborators from the environment.
// Both the web process and the worker share this bootstrap so they run the
// exact same orchestration code.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"finrota.com/app/internal/connector"
	"finrota.com/app/internal/connector/mockpay"
	"finrota.com/app/internal/gsm"
	"finrota.com/app/internal/metrics"
	"finrota.com/app/internal/modules/payments"
	"finrota.com/app/internal/modules/refunds"
	"finrota.com/app/internal/scheduler"
	"finrota.com/app/internal/storage"
)

type Options struct {
	// SnapshotGSM loads the status map into memory at boot instead of
	// querying per failed dispatch. The worker prefers this.
	SnapshotGSM bool
}

type App struct {
	Logger    *slog.Logger
	DB        *gorm.DB
	Metrics   *metrics.Counters
	RefundSvc *refunds.Service
	TaskRepo  *scheduler.Repo
}

func Bootstrap(ctx context.Context, logger *slog.Logger, opts Options) (*App, error) {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		return nil, fmt.Errorf("DB_DSN environment variable is required")
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	archive, err := storage.FromEnv(ctx)
	if err != nil {
		return nil, fmt.Errorf("dispatch archive: %w", err)
	}
	logger.Info("dispatch archive ready", "driver", archive.Driver)

	registry := connector.NewRegistry()
	registry.Register(mockpay.New(
		envOr("MOCKPAY_BASE_URL", "http://localhost:9090"),
		os.Getenv("MOCKPAY_API_KEY"),
		os.Getenv("MOCKPAY_API_SECRET"),
	))

	client := &http.Client{Timeout: time.Duration(envInt("CONNECTOR_TIMEOUT_SECONDS", 30)) * time.Second}
	dispatcher := connector.NewDispatcher(client, connector.NewMemoryTokenCache(), archive.Storage, logger)

	var statusMap gsm.Lookup = gsm.NewRepo(db)
	if opts.SnapshotGSM {
		table, err := gsm.LoadTable(ctx, gsm.NewRepo(db))
		if err != nil {
			return nil, fmt.Errorf("load status map: %w", err)
		}
		statusMap = table
	}

	taskRepo := scheduler.NewRepo(db)
	m := &metrics.Counters{}

	cfg := refunds.Config{
		Validation: refunds.ValidationConfig{
			MaxAge:      time.Duration(envInt("REFUND_MAX_AGE_DAYS", 365)) * 24 * time.Hour,
			MaxAttempts: int64(envInt("REFUND_MAX_ATTEMPTS", 10)),
		},
		SyncDelay: time.Duration(envInt("REFUND_SYNC_DELAY_MINUTES", 10)) * time.Minute,
	}

	svc := refunds.NewService(
		refunds.NewRepo(db),
		payments.NewRepo(db),
		registry,
		dispatcher,
		statusMap,
		taskRepo,
		m,
		logger,
		cfg,
	)

	return &App{Logger: logger, DB: db, Metrics: m, RefundSvc: svc, TaskRepo: taskRepo}, nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
