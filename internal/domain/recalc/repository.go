// Package recalc provides the deduplicated, prioritized recalculation queue
// and the worker that drains it.
package recalc

import (
	"context"
	"time"

	"github.com/arthurjuliorisa/imaps-sub001/internal/core/entity"
	"github.com/arthurjuliorisa/imaps-sub001/internal/core/id"
)

// QueueFilter filters queue listings.
type QueueFilter struct {
	CompanyCode string
	Status      *entity.RecalcStatus
	Limit       int
}

// QueueRepository persists recalculation queue entries.
type QueueRepository interface {
	// UpsertPending enqueues idempotently on the dedup key
	// (company_code, recalc_date, item_type_code?, item_code?):
	// an existing PENDING/PROCESSING entry has its priority, reason and
	// queued_at refreshed in place; a COMPLETED entry is re-opened to
	// PENDING with retries reset; otherwise a new row is inserted.
	// The resulting row is returned.
	UpsertPending(ctx context.Context, entry *entity.RecalcQueueEntry) (entity.RecalcQueueEntry, error)

	// GetByID returns one entry.
	GetByID(ctx context.Context, entryID id.ID) (entity.RecalcQueueEntry, error)

	// List returns entries matching the filter, newest first.
	List(ctx context.Context, filter QueueFilter) ([]entity.RecalcQueueEntry, error)

	// ListPending returns up to limit PENDING entries ordered by priority
	// descending, then queued_at ascending.
	ListPending(ctx context.Context, limit int) ([]entity.RecalcQueueEntry, error)

	// MarkProcessing transitions an entry to PROCESSING.
	MarkProcessing(ctx context.Context, entryID id.ID, at time.Time) error

	// MarkCompleted transitions an entry to COMPLETED.
	MarkCompleted(ctx context.Context, entryID id.ID, at time.Time) error

	// MarkFailed transitions an entry to FAILED (terminal).
	MarkFailed(ctx context.Context, entryID id.ID, errMsg string, at time.Time) error

	// ResetForRetry returns an entry to PENDING with the new retry count and
	// the error that caused the attempt to fail.
	ResetForRetry(ctx context.Context, entryID id.ID, retryCount int, errMsg string) error

	// Reopen returns a FAILED entry to PENDING with retries reset.
	// Operator action only; the worker never does this.
	Reopen(ctx context.Context, entryID id.ID, at time.Time) error

	// CountPending returns the number of PENDING entries.
	CountPending(ctx context.Context) (int, error)
}
