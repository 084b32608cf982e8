package batch

import (
	"context"
	"sync"
	"time"

	"github.com/arthurjuliorisa/imaps-sub001/internal/core/entity"
	"github.com/arthurjuliorisa/imaps-sub001/internal/core/id"
	"github.com/arthurjuliorisa/imaps-sub001/internal/infrastructure/telemetry"
	"github.com/arthurjuliorisa/imaps-sub001/pkg/logger"
)

// Trigger identifies one firing of a scheduled job.
type Trigger struct {
	JobType entity.JobType
	FiredAt time.Time
}

// JobResult carries the record counters of one run.
type JobResult struct {
	Total      int
	Successful int
	Failed     int
}

// JobFunc is a job body: it takes the trigger identity and returns counted
// results. Bodies hold no scheduler state, so they can equally be invoked
// from a test or a one-off command.
type JobFunc func(ctx context.Context, trig Trigger) (JobResult, error)

type scheduledJob struct {
	jobType  entity.JobType
	interval time.Duration
	fn       JobFunc
}

// Scheduler owns an explicit start/stop lifecycle. Each registered job runs
// on its own single loop, so two runs of the same job type never overlap;
// different job types run independently.
type Scheduler struct {
	logs JobLogRepository
	now  func() time.Time

	mu      sync.Mutex
	jobs    []scheduledJob
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// NewScheduler creates a scheduler writing run records through logs.
func NewScheduler(logs JobLogRepository) *Scheduler {
	return &Scheduler{
		logs: logs,
		now:  time.Now,
	}
}

// Register adds a job. Must be called before Start.
func (s *Scheduler) Register(jobType entity.JobType, interval time.Duration, fn JobFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, scheduledJob{jobType: jobType, interval: interval, fn: fn})
}

// Start launches one loop per registered job.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	for _, job := range s.jobs {
		s.wg.Add(1)
		go func(job scheduledJob) {
			defer s.wg.Done()
			s.runLoop(ctx, job)
		}(job)
	}

	logger.Info(ctx, "scheduler started", "jobs", len(s.jobs))
}

// Stop cancels every job loop and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) runLoop(ctx context.Context, job scheduledJob) {
	ticker := time.NewTicker(job.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx, job.jobType, job.fn)
		}
	}
}

// RunOnce executes one job run with a BatchJobLog record around it.
// Exposed so operators (and tests) can trigger a job outside its timer.
func (s *Scheduler) RunOnce(ctx context.Context, jobType entity.JobType, fn JobFunc) {
	run := &entity.BatchJobLog{
		ID:        id.New(),
		JobType:   jobType,
		Status:    entity.JobStatusRunning,
		StartedAt: s.now().UTC(),
	}
	if err := s.logs.Create(ctx, run); err != nil {
		logger.Error(ctx, "create job log failed", "job_type", jobType, "error", err)
	}

	result, err := fn(ctx, Trigger{JobType: jobType, FiredAt: run.StartedAt})

	finished := s.now().UTC()
	run.FinishedAt = &finished
	run.TotalRecords = result.Total
	run.SuccessfulRecords = result.Successful
	run.FailedRecords = result.Failed

	switch {
	case err != nil:
		run.Status = entity.JobStatusFailed
		msg := err.Error()
		run.ErrorMessage = &msg
	case result.Failed > 0:
		run.Status = entity.JobStatusPartial
	default:
		run.Status = entity.JobStatusCompleted
	}

	if logErr := s.logs.Finish(ctx, run); logErr != nil {
		logger.Error(ctx, "finish job log failed", "job_type", jobType, "error", logErr)
	}
	telemetry.JobRuns.WithLabelValues(string(jobType), string(run.Status)).Inc()

	if err != nil {
		logger.Error(ctx, "batch job failed",
			"job_type", jobType,
			"error", err,
		)
		return
	}
	logger.Info(ctx, "batch job finished",
		"job_type", jobType,
		"status", run.Status,
		"total", result.Total,
		"successful", result.Successful,
		"failed", result.Failed,
		"duration_ms", finished.Sub(run.StartedAt).Milliseconds(),
	)
}
