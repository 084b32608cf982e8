package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/arthurjuliorisa/imaps-sub001/internal/core/types"
	"github.com/arthurjuliorisa/imaps-sub001/internal/domain/recalc"
	"github.com/arthurjuliorisa/imaps-sub001/internal/domain/snapshot"
	"github.com/arthurjuliorisa/imaps-sub001/pkg/logger"
)

// Calculator is the slice of the snapshot engine the jobs drive.
type Calculator interface {
	Calculate(ctx context.Context, in snapshot.CalculateInput) (snapshot.CalculationResult, error)
}

// QueueDrainer is the slice of the queue worker the drain job drives.
type QueueDrainer interface {
	ProcessBatch(ctx context.Context) (recalc.BatchStats, error)
}

// Jobs holds the bodies of the scheduled batch jobs. Each body is a plain
// JobFunc so the scheduler, an operator endpoint, or a test can invoke it.
type Jobs struct {
	engine    Calculator
	drainer   QueueDrainer
	enqueuer  *recalc.Service
	snapshots snapshot.SnapshotRepository
	details   snapshot.TransactionDetailRepository
	now       func() time.Time

	mu         sync.Mutex
	lastHourly time.Time
	lookback   time.Duration
}

// NewJobs creates the job bodies. lookback bounds how far back the first
// hourly pass scans for touched dates after a restart.
func NewJobs(
	engine Calculator,
	drainer QueueDrainer,
	enqueuer *recalc.Service,
	snapshots snapshot.SnapshotRepository,
	details snapshot.TransactionDetailRepository,
	lookback time.Duration,
) *Jobs {
	if lookback <= 0 {
		lookback = 2 * time.Hour
	}
	return &Jobs{
		engine:    engine,
		drainer:   drainer,
		enqueuer:  enqueuer,
		snapshots: snapshots,
		details:   details,
		now:       time.Now,
		lookback:  lookback,
	}
}

// HourlyIncremental finds the (company, business date) pairs touched by
// transactions created since the previous run. Backdated dates are enqueued
// so the worker cascades them; today's dates are recomputed inline, since
// no later snapshot depends on them yet.
func (j *Jobs) HourlyIncremental(ctx context.Context, trig Trigger) (JobResult, error) {
	var result JobResult

	j.mu.Lock()
	since := j.lastHourly
	if since.IsZero() {
		since = trig.FiredAt.Add(-j.lookback)
	}
	j.mu.Unlock()

	touched, err := j.details.ListTouchedSince(ctx, since)
	if err != nil {
		return result, fmt.Errorf("list touched dates: %w", err)
	}
	result.Total = len(touched)

	today := types.DateOf(j.now())
	for _, cd := range touched {
		date := types.DateOf(cd.Date)

		if date.Before(today) {
			_, err := j.enqueuer.Enqueue(ctx, recalc.EnqueueInput{
				CompanyCode: cd.CompanyCode,
				RecalcDate:  date,
				Reason:      "hourly incremental: backdated transaction",
			})
			if err != nil {
				result.Failed++
				logger.Error(ctx, "enqueue backdated date failed",
					"company_code", cd.CompanyCode,
					"recalc_date", date.Format(time.DateOnly),
					"error", err,
				)
				continue
			}
			result.Successful++
			continue
		}

		_, err := j.engine.Calculate(ctx, snapshot.CalculateInput{
			CompanyCode: cd.CompanyCode,
			TargetDate:  date,
		})
		if err != nil {
			result.Failed++
			logger.Error(ctx, "incremental calculation failed",
				"company_code", cd.CompanyCode,
				"snapshot_date", date.Format(time.DateOnly),
				"error", err,
			)
			continue
		}
		result.Successful++
	}

	j.mu.Lock()
	j.lastHourly = trig.FiredAt
	j.mu.Unlock()

	return result, nil
}

// NightlyEOD materializes today's snapshot for every company and every item
// the ledger has ever seen, so zero-movement days still produce a row with
// the balance carried forward.
func (j *Jobs) NightlyEOD(ctx context.Context, trig Trigger) (JobResult, error) {
	var result JobResult

	companies, err := j.snapshots.ListCompanyCodes(ctx)
	if err != nil {
		return result, fmt.Errorf("list companies: %w", err)
	}
	result.Total = len(companies)

	date := types.DateOf(trig.FiredAt)
	for _, company := range companies {
		_, err := j.engine.Calculate(ctx, snapshot.CalculateInput{
			CompanyCode: company,
			TargetDate:  date,
			Exhaustive:  true,
		})
		if err != nil {
			result.Failed++
			logger.Error(ctx, "end of day calculation failed",
				"company_code", company,
				"snapshot_date", date.Format(time.DateOnly),
				"error", err,
			)
			continue
		}
		result.Successful++
	}

	return result, nil
}

// QueueDrain runs one worker batch over the pending recalculation queue.
func (j *Jobs) QueueDrain(ctx context.Context, _ Trigger) (JobResult, error) {
	stats, err := j.drainer.ProcessBatch(ctx)
	result := JobResult{
		Total:      stats.Picked,
		Successful: stats.Completed,
		Failed:     stats.Failed + stats.Retried,
	}
	if err != nil {
		return result, fmt.Errorf("drain queue: %w", err)
	}
	return result, nil
}

// ViewRefresh refreshes the reporting views that read the snapshot table.
func (j *Jobs) ViewRefresh(ctx context.Context, _ Trigger) (JobResult, error) {
	if err := j.snapshots.RefreshReportingViews(ctx); err != nil {
		return JobResult{Total: 1, Failed: 1}, fmt.Errorf("refresh reporting views: %w", err)
	}
	return JobResult{Total: 1, Successful: 1}, nil
}
