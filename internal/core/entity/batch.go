package entity

import (
	"time"

	"github.com/arthurjuliorisa/imaps-sub001/internal/core/id"
)

// JobType identifies a scheduled batch job.
type JobType string

const (
	// JobHourlyIncremental recomputes dates touched by recent transactions.
	JobHourlyIncremental JobType = "HOURLY_INCREMENTAL"
	// JobNightlyEOD materializes today's snapshot for every company and item.
	JobNightlyEOD JobType = "NIGHTLY_EOD"
	// JobQueueDrain processes pending recalculation queue entries.
	JobQueueDrain JobType = "QUEUE_DRAIN"
	// JobViewRefresh refreshes the downstream reporting views.
	JobViewRefresh JobType = "VIEW_REFRESH"
)

// JobStatus is the outcome of one scheduler run.
type JobStatus string

const (
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusCompleted JobStatus = "COMPLETED"
	JobStatusPartial   JobStatus = "COMPLETED_WITH_ERRORS"
	JobStatusFailed    JobStatus = "FAILED"
)

// BatchJobLog is the audit record of one scheduler run.
type BatchJobLog struct {
	ID                id.ID      `db:"id" json:"id"`
	JobType           JobType    `db:"job_type" json:"jobType"`
	Status            JobStatus  `db:"status" json:"status"`
	StartedAt         time.Time  `db:"started_at" json:"startedAt"`
	FinishedAt        *time.Time `db:"finished_at" json:"finishedAt,omitempty"`
	TotalRecords      int        `db:"total_records" json:"totalRecords"`
	SuccessfulRecords int        `db:"successful_records" json:"successfulRecords"`
	FailedRecords     int        `db:"failed_records" json:"failedRecords"`
	ErrorMessage      *string    `db:"error_message" json:"errorMessage,omitempty"`
}
