// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arthurjuliorisa/imaps-sub001/internal/domain/batch"
	"github.com/arthurjuliorisa/imaps-sub001/internal/domain/recalc"
	"github.com/arthurjuliorisa/imaps-sub001/internal/domain/snapshot"
	"github.com/arthurjuliorisa/imaps-sub001/internal/infrastructure/http/v1/handlers"
	"github.com/arthurjuliorisa/imaps-sub001/internal/infrastructure/http/v1/middleware"
	"github.com/arthurjuliorisa/imaps-sub001/internal/infrastructure/storage/postgres"
	"github.com/arthurjuliorisa/imaps-sub001/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Pool is the database connection pool (for health checks)
	Pool *postgres.Pool

	// Logger for request logging
	Logger *logger.Logger

	// Engine runs synchronous calculation passes
	Engine *snapshot.Engine

	// Snapshots serves snapshot reads
	Snapshots snapshot.SnapshotRepository

	// QueueService manages the recalculation queue
	QueueService *recalc.Service

	// JobLogs serves batch run inspection
	JobLogs batch.JobLogRepository
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1
	baseHandler := handlers.NewBaseHandler()
	api := router.Group("/api/v1")
	{
		snapshotHandler := handlers.NewSnapshotHandler(baseHandler, cfg.Engine, cfg.Snapshots)
		snapshots := api.Group("/snapshots")
		{
			snapshots.GET("", snapshotHandler.List)
			snapshots.POST("/calculate", snapshotHandler.Calculate)
			snapshots.POST("/cascade", snapshotHandler.Cascade)
		}

		queueHandler := handlers.NewQueueHandler(baseHandler, cfg.QueueService)
		queue := api.Group("/recalc-queue")
		{
			queue.POST("", queueHandler.Enqueue)
			queue.GET("", queueHandler.List)
			queue.POST("/:id/retry", queueHandler.Retry)
		}

		batchHandler := handlers.NewBatchHandler(baseHandler, cfg.JobLogs)
		api.GET("/batch-logs", batchHandler.List)
	}

	return router
}
