package recalc

import (
	"context"
	"fmt"
	"time"

	"github.com/arthurjuliorisa/imaps-sub001/internal/core/apperror"
	"github.com/arthurjuliorisa/imaps-sub001/internal/core/entity"
	"github.com/arthurjuliorisa/imaps-sub001/internal/core/id"
	"github.com/arthurjuliorisa/imaps-sub001/internal/core/types"
	"github.com/arthurjuliorisa/imaps-sub001/pkg/logger"
)

// EnqueueInput describes one recompute request.
type EnqueueInput struct {
	CompanyCode string
	RecalcDate  time.Time
	ItemType    *entity.ItemTypeCode
	ItemCode    *string
	Reason      string
	// Priority overrides the date-based policy when set.
	Priority *int
}

// Service enqueues recompute requests. Enqueue is fire-and-forget for the
// caller: the originating write has already succeeded, and the outcome of
// the recalculation is observable only through the queue and job logs.
type Service struct {
	repo QueueRepository
	now  func() time.Time
}

// NewService creates a queue service.
func NewService(repo QueueRepository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// Enqueue upserts a recompute request on its dedup key.
//
// Priority policy: dates before today get PriorityBackdated (processed
// first, they are corrections); today's date gets PrioritySameDay, since
// the nightly EOD pass will recompute it anyway.
func (s *Service) Enqueue(ctx context.Context, in EnqueueInput) (entity.RecalcQueueEntry, error) {
	if in.CompanyCode == "" {
		return entity.RecalcQueueEntry{}, apperror.NewValidation("companyCode is required")
	}
	if in.RecalcDate.IsZero() {
		return entity.RecalcQueueEntry{}, apperror.NewValidation("recalcDate is required")
	}
	if in.ItemType != nil && !in.ItemType.Valid() {
		return entity.RecalcQueueEntry{}, apperror.NewValidation(fmt.Sprintf("unknown item type %q", *in.ItemType))
	}

	date := types.DateOf(in.RecalcDate)
	priority := entity.PrioritySameDay
	if date.Before(types.DateOf(s.now())) {
		priority = entity.PriorityBackdated
	}
	if in.Priority != nil {
		priority = *in.Priority
	}

	reason := in.Reason
	if reason == "" {
		reason = "manual"
	}

	entry := entity.RecalcQueueEntry{
		ID:          id.New(),
		CompanyCode: in.CompanyCode,
		RecalcDate:  date,
		ItemType:    in.ItemType,
		ItemCode:    in.ItemCode,
		Status:      entity.RecalcStatusPending,
		Priority:    priority,
		Reason:      reason,
		QueuedAt:    s.now().UTC(),
	}

	stored, err := s.repo.UpsertPending(ctx, &entry)
	if err != nil {
		return entity.RecalcQueueEntry{}, fmt.Errorf("upsert queue entry: %w", err)
	}

	logger.Info(ctx, "recalculation enqueued",
		"entry_id", stored.ID,
		"company_code", stored.CompanyCode,
		"recalc_date", stored.RecalcDate.Format(time.DateOnly),
		"priority", stored.Priority,
		"reason", stored.Reason,
	)

	return stored, nil
}

// Retry re-opens a FAILED entry for another round of attempts.
func (s *Service) Retry(ctx context.Context, entryID id.ID) error {
	entry, err := s.repo.GetByID(ctx, entryID)
	if err != nil {
		return err
	}
	if entry.Status != entity.RecalcStatusFailed {
		return apperror.NewConflict("only FAILED entries can be retried").
			WithDetail("entry_id", entryID).
			WithDetail("status", entry.Status)
	}
	if err := s.repo.Reopen(ctx, entryID, s.now().UTC()); err != nil {
		return fmt.Errorf("reopen queue entry: %w", err)
	}

	logger.Info(ctx, "failed entry reopened", "entry_id", entryID)
	return nil
}

// List returns queue entries for inspection.
func (s *Service) List(ctx context.Context, filter QueueFilter) ([]entity.RecalcQueueEntry, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.Limit > 1000 {
		filter.Limit = 1000
	}
	return s.repo.List(ctx, filter)
}
