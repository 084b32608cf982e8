// Package recalc_repo provides the PostgreSQL implementation of the
// recalculation queue repository.
package recalc_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/arthurjuliorisa/imaps-sub001/internal/core/apperror"
	"github.com/arthurjuliorisa/imaps-sub001/internal/core/entity"
	"github.com/arthurjuliorisa/imaps-sub001/internal/core/id"
	"github.com/arthurjuliorisa/imaps-sub001/internal/domain/recalc"
	"github.com/arthurjuliorisa/imaps-sub001/internal/infrastructure/storage/postgres"
)

const queueTable = "snapshot_recalc_queue"

var queueColumns = []string{
	"id", "company_code", "recalc_date", "item_type_code", "item_code",
	"status", "priority", "retry_count", "reason", "error_message",
	"queued_at", "started_at", "completed_at",
}

// QueueRepo implements recalc.QueueRepository.
type QueueRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewQueueRepo creates a new queue repository.
func NewQueueRepo(txm *postgres.TxManager) *QueueRepo {
	return &QueueRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// UpsertPending enqueues idempotently on the dedup key. The whole flow runs
// in one transaction so two concurrent enqueues of the same key cannot both
// insert.
func (r *QueueRepo) UpsertPending(ctx context.Context, entry *entity.RecalcQueueEntry) (entity.RecalcQueueEntry, error) {
	var stored entity.RecalcQueueEntry

	err := r.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, found, err := r.findActiveByDedupKey(ctx, entry)
		if err != nil {
			return err
		}

		if !found {
			return r.insert(ctx, entry, &stored)
		}

		switch existing.Status {
		case entity.RecalcStatusPending, entity.RecalcStatusProcessing:
			// Refresh in place; highest requested priority wins.
			priority := existing.Priority
			if entry.Priority > priority {
				priority = entry.Priority
			}
			return r.refresh(ctx, existing.ID, priority, entry.Reason, entry.QueuedAt, &stored)
		case entity.RecalcStatusCompleted:
			return r.reopenAs(ctx, existing.ID, entry, &stored)
		default:
			// FAILED rows stay for the operator; a fresh request gets its own row.
			return r.insert(ctx, entry, &stored)
		}
	})
	if err != nil {
		return entity.RecalcQueueEntry{}, err
	}

	return stored, nil
}

// findActiveByDedupKey locks the newest non-FAILED row for the dedup key.
func (r *QueueRepo) findActiveByDedupKey(ctx context.Context, entry *entity.RecalcQueueEntry) (entity.RecalcQueueEntry, bool, error) {
	q := r.builder.Select(queueColumns...).
		From(queueTable).
		Where(squirrel.Eq{
			"company_code": entry.CompanyCode,
			"recalc_date":  entry.RecalcDate,
		}).
		Where(squirrel.NotEq{"status": entity.RecalcStatusFailed})

	if entry.ItemType != nil {
		q = q.Where(squirrel.Eq{"item_type_code": *entry.ItemType})
	} else {
		q = q.Where("item_type_code IS NULL")
	}
	if entry.ItemCode != nil {
		q = q.Where(squirrel.Eq{"item_code": *entry.ItemCode})
	} else {
		q = q.Where("item_code IS NULL")
	}

	q = q.OrderBy("queued_at DESC").Limit(1).Suffix("FOR UPDATE")

	sql, args, err := q.ToSql()
	if err != nil {
		return entity.RecalcQueueEntry{}, false, fmt.Errorf("build query: %w", err)
	}

	var existing entity.RecalcQueueEntry
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &existing, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity.RecalcQueueEntry{}, false, nil
		}
		return entity.RecalcQueueEntry{}, false, fmt.Errorf("find queue entry: %w", err)
	}

	return existing, true, nil
}

func (r *QueueRepo) insert(ctx context.Context, entry *entity.RecalcQueueEntry, stored *entity.RecalcQueueEntry) error {
	q := r.builder.Insert(queueTable).
		Columns(queueColumns...).
		Values(
			entry.ID, entry.CompanyCode, entry.RecalcDate, entry.ItemType, entry.ItemCode,
			entry.Status, entry.Priority, entry.RetryCount, entry.Reason, entry.ErrorMessage,
			entry.QueuedAt, entry.StartedAt, entry.CompletedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert queue entry: %w", err)
	}

	*stored = *entry
	return nil
}

func (r *QueueRepo) refresh(ctx context.Context, entryID id.ID, priority int, reason string, queuedAt time.Time, stored *entity.RecalcQueueEntry) error {
	q := r.builder.Update(queueTable).
		Set("priority", priority).
		Set("reason", reason).
		Set("queued_at", queuedAt).
		Where(squirrel.Eq{"id": entryID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("refresh queue entry: %w", err)
	}

	refreshed, err := r.GetByID(ctx, entryID)
	if err != nil {
		return err
	}
	*stored = refreshed
	return nil
}

// reopenAs turns a COMPLETED row back into a fresh PENDING request.
func (r *QueueRepo) reopenAs(ctx context.Context, entryID id.ID, entry *entity.RecalcQueueEntry, stored *entity.RecalcQueueEntry) error {
	q := r.builder.Update(queueTable).
		Set("status", entity.RecalcStatusPending).
		Set("priority", entry.Priority).
		Set("retry_count", 0).
		Set("reason", entry.Reason).
		Set("error_message", nil).
		Set("queued_at", entry.QueuedAt).
		Set("started_at", nil).
		Set("completed_at", nil).
		Where(squirrel.Eq{"id": entryID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("reopen queue entry: %w", err)
	}

	reopened, err := r.GetByID(ctx, entryID)
	if err != nil {
		return err
	}
	*stored = reopened
	return nil
}

// GetByID returns one entry.
func (r *QueueRepo) GetByID(ctx context.Context, entryID id.ID) (entity.RecalcQueueEntry, error) {
	q := r.builder.Select(queueColumns...).
		From(queueTable).
		Where(squirrel.Eq{"id": entryID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return entity.RecalcQueueEntry{}, fmt.Errorf("build query: %w", err)
	}

	var entry entity.RecalcQueueEntry
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &entry, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity.RecalcQueueEntry{}, apperror.NewNotFound("queue entry", entryID)
		}
		return entity.RecalcQueueEntry{}, fmt.Errorf("get queue entry: %w", err)
	}

	return entry, nil
}

// List returns entries matching the filter, newest first.
func (r *QueueRepo) List(ctx context.Context, filter recalc.QueueFilter) ([]entity.RecalcQueueEntry, error) {
	q := r.builder.Select(queueColumns...).From(queueTable)

	if filter.CompanyCode != "" {
		q = q.Where(squirrel.Eq{"company_code": filter.CompanyCode})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}

	q = q.OrderBy("queued_at DESC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []entity.RecalcQueueEntry
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select queue entries: %w", err)
	}

	return entries, nil
}

// ListPending returns up to limit PENDING entries ordered by priority
// descending, then queued_at ascending.
func (r *QueueRepo) ListPending(ctx context.Context, limit int) ([]entity.RecalcQueueEntry, error) {
	q := r.builder.Select(queueColumns...).
		From(queueTable).
		Where(squirrel.Eq{"status": entity.RecalcStatusPending}).
		OrderBy("priority DESC", "queued_at ASC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []entity.RecalcQueueEntry
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select pending entries: %w", err)
	}

	return entries, nil
}

// updateStatus applies a status transition.
func (r *QueueRepo) updateStatus(ctx context.Context, entryID id.ID, set map[string]any) error {
	q := r.builder.Update(queueTable).
		SetMap(set).
		Where(squirrel.Eq{"id": entryID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update queue entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("queue entry", entryID)
	}

	return nil
}

// MarkProcessing transitions an entry to PROCESSING.
func (r *QueueRepo) MarkProcessing(ctx context.Context, entryID id.ID, at time.Time) error {
	return r.updateStatus(ctx, entryID, map[string]any{
		"status":     entity.RecalcStatusProcessing,
		"started_at": at,
	})
}

// MarkCompleted transitions an entry to COMPLETED.
func (r *QueueRepo) MarkCompleted(ctx context.Context, entryID id.ID, at time.Time) error {
	return r.updateStatus(ctx, entryID, map[string]any{
		"status":        entity.RecalcStatusCompleted,
		"error_message": nil,
		"completed_at":  at,
	})
}

// MarkFailed transitions an entry to FAILED (terminal).
func (r *QueueRepo) MarkFailed(ctx context.Context, entryID id.ID, errMsg string, at time.Time) error {
	return r.updateStatus(ctx, entryID, map[string]any{
		"status":        entity.RecalcStatusFailed,
		"error_message": errMsg,
		"completed_at":  at,
	})
}

// ResetForRetry returns an entry to PENDING with the new retry count.
func (r *QueueRepo) ResetForRetry(ctx context.Context, entryID id.ID, retryCount int, errMsg string) error {
	return r.updateStatus(ctx, entryID, map[string]any{
		"status":        entity.RecalcStatusPending,
		"retry_count":   retryCount,
		"error_message": errMsg,
		"started_at":    nil,
	})
}

// Reopen returns a FAILED entry to PENDING with retries reset.
func (r *QueueRepo) Reopen(ctx context.Context, entryID id.ID, at time.Time) error {
	return r.updateStatus(ctx, entryID, map[string]any{
		"status":        entity.RecalcStatusPending,
		"retry_count":   0,
		"error_message": nil,
		"queued_at":     at,
		"started_at":    nil,
		"completed_at":  nil,
	})
}

// CountPending returns the number of PENDING entries.
func (r *QueueRepo) CountPending(ctx context.Context) (int, error) {
	q := r.builder.Select("COUNT(*)").
		From(queueTable).
		Where(squirrel.Eq{"status": entity.RecalcStatusPending})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var count int
	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count pending entries: %w", err)
	}

	return count, nil
}

// Ensure interface compliance.
var _ recalc.QueueRepository = (*QueueRepo)(nil)
