package entity

import (
	"time"

	"github.com/arthurjuliorisa/imaps-sub001/internal/core/id"
)

// RecalcStatus is the lifecycle state of a recalculation queue entry.
type RecalcStatus string

const (
	RecalcStatusPending    RecalcStatus = "PENDING"
	RecalcStatusProcessing RecalcStatus = "PROCESSING"
	RecalcStatusCompleted  RecalcStatus = "COMPLETED"
	RecalcStatusFailed     RecalcStatus = "FAILED"
)

// MaxRecalcRetries is the number of attempts before an entry turns FAILED.
const MaxRecalcRetries = 3

// Queue priorities. Backdated corrections are processed first; same-day
// entries can wait for the nightly EOD pass.
const (
	PriorityBackdated = 0
	PrioritySameDay   = -1
)

// RecalcQueueEntry is one pending (company, date, scope) recompute request.
// The dedup key is (company_code, recalc_date, item_type_code?, item_code?);
// a nil item scope means "all items for that company+date". At most one
// active (non-terminal) row exists per dedup key.
type RecalcQueueEntry struct {
	ID          id.ID         `db:"id" json:"id"`
	CompanyCode string        `db:"company_code" json:"companyCode"`
	RecalcDate  time.Time     `db:"recalc_date" json:"recalcDate"`
	ItemType    *ItemTypeCode `db:"item_type_code" json:"itemTypeCode,omitempty"`
	ItemCode    *string       `db:"item_code" json:"itemCode,omitempty"`

	Status RecalcStatus `db:"status" json:"status"`

	// Priority orders the queue; RetryCount tracks failed attempts.
	// They are deliberately separate fields so retries never change
	// queue ordering.
	Priority   int `db:"priority" json:"priority"`
	RetryCount int `db:"retry_count" json:"retryCount"`

	Reason       string     `db:"reason" json:"reason"`
	ErrorMessage *string    `db:"error_message" json:"errorMessage,omitempty"`
	QueuedAt     time.Time  `db:"queued_at" json:"queuedAt"`
	StartedAt    *time.Time `db:"started_at" json:"startedAt,omitempty"`
	CompletedAt  *time.Time `db:"completed_at" json:"completedAt,omitempty"`
}

// IsTerminal reports whether the entry reached a final state.
func (e *RecalcQueueEntry) IsTerminal() bool {
	return e.Status == RecalcStatusCompleted || e.Status == RecalcStatusFailed
}
