// Package batch_repo provides the PostgreSQL implementation of the batch
// job log repository.
package batch_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/arthurjuliorisa/imaps-sub001/internal/core/apperror"
	"github.com/arthurjuliorisa/imaps-sub001/internal/core/entity"
	"github.com/arthurjuliorisa/imaps-sub001/internal/domain/batch"
	"github.com/arthurjuliorisa/imaps-sub001/internal/infrastructure/storage/postgres"
)

const jobLogTable = "batch_processing_log"

var jobLogColumns = []string{
	"id", "job_type", "status", "started_at", "finished_at",
	"total_records", "successful_records", "failed_records", "error_message",
}

// JobLogRepo implements batch.JobLogRepository.
type JobLogRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewJobLogRepo creates a new job log repository.
func NewJobLogRepo(txm *postgres.TxManager) *JobLogRepo {
	return &JobLogRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a RUNNING log row at job start.
func (r *JobLogRepo) Create(ctx context.Context, log *entity.BatchJobLog) error {
	q := r.builder.Insert(jobLogTable).
		Columns(jobLogColumns...).
		Values(
			log.ID, log.JobType, log.Status, log.StartedAt, log.FinishedAt,
			log.TotalRecords, log.SuccessfulRecords, log.FailedRecords, log.ErrorMessage,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert job log: %w", err)
	}

	return nil
}

// Finish updates the row with the final status and counters.
func (r *JobLogRepo) Finish(ctx context.Context, log *entity.BatchJobLog) error {
	q := r.builder.Update(jobLogTable).
		Set("status", log.Status).
		Set("finished_at", log.FinishedAt).
		Set("total_records", log.TotalRecords).
		Set("successful_records", log.SuccessfulRecords).
		Set("failed_records", log.FailedRecords).
		Set("error_message", log.ErrorMessage).
		Where(squirrel.Eq{"id": log.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update job log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("job log", log.ID)
	}

	return nil
}

// ListRecent returns the most recent runs, optionally for one job type.
func (r *JobLogRepo) ListRecent(ctx context.Context, jobType *entity.JobType, limit int) ([]entity.BatchJobLog, error) {
	q := r.builder.Select(jobLogColumns...).From(jobLogTable)
	if jobType != nil {
		q = q.Where(squirrel.Eq{"job_type": *jobType})
	}
	q = q.OrderBy("started_at DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var logs []entity.BatchJobLog
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &logs, sql, args...); err != nil {
		return nil, fmt.Errorf("select job logs: %w", err)
	}

	return logs, nil
}

// Ensure interface compliance.
var _ batch.JobLogRepository = (*JobLogRepo)(nil)
