package recalc

import (
	"context"
	"fmt"
	"time"

	"github.com/arthurjuliorisa/imaps-sub001/internal/core/entity"
	"github.com/arthurjuliorisa/imaps-sub001/internal/domain/snapshot"
	"github.com/arthurjuliorisa/imaps-sub001/internal/infrastructure/telemetry"
	"github.com/arthurjuliorisa/imaps-sub001/pkg/logger"
)

// CascadeRunner is the slice of the snapshot engine the worker drives.
type CascadeRunner interface {
	Cascade(ctx context.Context, in snapshot.CascadeInput) ([]snapshot.CalculationResult, error)
}

// WorkerConfig configures one drain pass.
type WorkerConfig struct {
	// BatchSize caps the number of entries pulled per drain.
	BatchSize int
}

// DefaultWorkerConfig returns production defaults.
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{BatchSize: 20}
}

// BatchStats summarizes one drain pass.
type BatchStats struct {
	Picked    int
	Completed int
	Retried   int
	Failed    int
}

// Worker drains the queue strictly sequentially. The delete/insert pattern
// inside a cascade is not safe under concurrent writers, so entries are
// never processed in parallel; an entry's failure is isolated from its
// siblings in the same batch.
type Worker struct {
	queue  QueueRepository
	engine CascadeRunner
	cfg    WorkerConfig
	now    func() time.Time
}

// NewWorker creates a queue worker.
func NewWorker(queue QueueRepository, engine CascadeRunner, cfg WorkerConfig) *Worker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultWorkerConfig().BatchSize
	}
	return &Worker{
		queue:  queue,
		engine: engine,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Run drains the queue on a fixed interval until ctx is cancelled. The
// scheduler's queue-drain job is the usual driver; Run exists for running
// the worker standalone.
func (w *Worker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.ProcessBatch(ctx); err != nil && ctx.Err() == nil {
				logger.Error(ctx, "drain pass failed", "error", err)
			}
		}
	}
}

// ProcessBatch pulls up to BatchSize PENDING entries, highest priority
// first and oldest first within equal priority, and processes them one by
// one.
func (w *Worker) ProcessBatch(ctx context.Context) (BatchStats, error) {
	var stats BatchStats

	entries, err := w.queue.ListPending(ctx, w.cfg.BatchSize)
	if err != nil {
		return stats, fmt.Errorf("list pending entries: %w", err)
	}
	stats.Picked = len(entries)

	for i := range entries {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		w.processEntry(ctx, &entries[i], &stats)
	}

	if depth, err := w.queue.CountPending(ctx); err == nil {
		telemetry.QueueDepth.Set(float64(depth))
	}

	return stats, nil
}

func (w *Worker) processEntry(ctx context.Context, entry *entity.RecalcQueueEntry, stats *BatchStats) {
	if err := w.queue.MarkProcessing(ctx, entry.ID, w.now().UTC()); err != nil {
		logger.Error(ctx, "mark processing failed", "entry_id", entry.ID, "error", err)
		stats.Failed++
		return
	}

	_, err := w.engine.Cascade(ctx, snapshot.CascadeInput{
		CompanyCode: entry.CompanyCode,
		StartDate:   entry.RecalcDate,
		Scope: snapshot.Scope{
			ItemType: entry.ItemType,
			ItemCode: entry.ItemCode,
		},
	})
	if err == nil {
		if err := w.queue.MarkCompleted(ctx, entry.ID, w.now().UTC()); err != nil {
			logger.Error(ctx, "mark completed failed", "entry_id", entry.ID, "error", err)
		}
		stats.Completed++
		telemetry.WorkerEntries.WithLabelValues("completed").Inc()
		return
	}

	retry := entry.RetryCount + 1
	if retry >= entity.MaxRecalcRetries {
		if mfErr := w.queue.MarkFailed(ctx, entry.ID, err.Error(), w.now().UTC()); mfErr != nil {
			logger.Error(ctx, "mark failed failed", "entry_id", entry.ID, "error", mfErr)
		}
		stats.Failed++
		telemetry.WorkerEntries.WithLabelValues("failed").Inc()
		logger.Error(ctx, "queue entry failed permanently, operator attention required",
			"entry_id", entry.ID,
			"company_code", entry.CompanyCode,
			"recalc_date", entry.RecalcDate.Format(time.DateOnly),
			"attempts", retry,
			"error", err,
		)
		return
	}

	if rrErr := w.queue.ResetForRetry(ctx, entry.ID, retry, err.Error()); rrErr != nil {
		logger.Error(ctx, "reset for retry failed", "entry_id", entry.ID, "error", rrErr)
		stats.Failed++
		return
	}
	stats.Retried++
	telemetry.WorkerEntries.WithLabelValues("retried").Inc()
	logger.Warn(ctx, "queue entry attempt failed, retrying",
		"entry_id", entry.ID,
		"retry_count", retry,
		"error", err,
	)
}
