// Package batch provides the scheduler that drives the engine on timers
// and the audit log of its runs.
package batch

import (
	"context"

	"github.com/arthurjuliorisa/imaps-sub001/internal/core/entity"
)

// JobLogRepository persists batch job run records.
type JobLogRepository interface {
	// Create inserts a RUNNING log row at job start.
	Create(ctx context.Context, log *entity.BatchJobLog) error

	// Finish updates the row with the final status and counters.
	Finish(ctx context.Context, log *entity.BatchJobLog) error

	// ListRecent returns the most recent runs, optionally for one job type.
	ListRecent(ctx context.Context, jobType *entity.JobType, limit int) ([]entity.BatchJobLog, error)
}
