// Package main is the entry point for the snapshot batch worker. It runs
// the scheduled jobs: hourly incremental passes, the nightly end-of-day
// materialization, the recalculation queue drain and the reporting view
// refresh.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arthurjuliorisa/imaps-sub001/internal/core/entity"
	"github.com/arthurjuliorisa/imaps-sub001/internal/domain/batch"
	"github.com/arthurjuliorisa/imaps-sub001/internal/domain/recalc"
	"github.com/arthurjuliorisa/imaps-sub001/internal/domain/snapshot"
	"github.com/arthurjuliorisa/imaps-sub001/internal/infrastructure/storage/postgres"
	"github.com/arthurjuliorisa/imaps-sub001/internal/infrastructure/storage/postgres/batch_repo"
	"github.com/arthurjuliorisa/imaps-sub001/internal/infrastructure/storage/postgres/recalc_repo"
	"github.com/arthurjuliorisa/imaps-sub001/internal/infrastructure/storage/postgres/snapshot_repo"
	"github.com/arthurjuliorisa/imaps-sub001/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting snapshot batch worker")

	// --- Database connection ---
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(mustEnv("DATABASE_URL")))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	// --- Repositories and services ---
	txManager := postgres.NewTxManager(pool)

	snapshotRepo := snapshot_repo.NewSnapshotRepo(txManager)
	beginningRepo := snapshot_repo.NewBeginningBalanceRepo(txManager)
	detailRepo := snapshot_repo.NewTransactionDetailRepo(txManager)
	queueRepo := recalc_repo.NewQueueRepo(txManager)
	jobLogRepo := batch_repo.NewJobLogRepo(txManager)

	calculator := snapshot.NewCalculator(snapshotRepo, beginningRepo, detailRepo)
	engine := snapshot.NewEngine(calculator, snapshotRepo, txManager)
	queueService := recalc.NewService(queueRepo)

	workerCfg := recalc.DefaultWorkerConfig()
	if batchSize := getEnvInt("QUEUE_BATCH_SIZE", 0); batchSize > 0 {
		workerCfg.BatchSize = batchSize
	}
	queueWorker := recalc.NewWorker(queueRepo, engine, workerCfg)

	jobs := batch.NewJobs(
		engine,
		queueWorker,
		queueService,
		snapshotRepo,
		detailRepo,
		getEnvDuration("HOURLY_LOOKBACK", 2*time.Hour),
	)

	// --- Scheduler ---
	scheduler := batch.NewScheduler(jobLogRepo)
	scheduler.Register(entity.JobHourlyIncremental,
		getEnvDuration("HOURLY_INTERVAL", time.Hour), jobs.HourlyIncremental)
	scheduler.Register(entity.JobNightlyEOD,
		getEnvDuration("EOD_INTERVAL", 24*time.Hour), jobs.NightlyEOD)
	scheduler.Register(entity.JobQueueDrain,
		getEnvDuration("QUEUE_DRAIN_INTERVAL", time.Minute), jobs.QueueDrain)
	scheduler.Register(entity.JobViewRefresh,
		getEnvDuration("VIEW_REFRESH_INTERVAL", 15*time.Minute), jobs.ViewRefresh)

	scheduler.Start(ctx)

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()
	scheduler.Stop()

	log.Info("worker stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
