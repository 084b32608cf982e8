package recalc

import (
	"context"
	"sort"
	"time"

	"github.com/arthurjuliorisa/imaps-sub001/internal/core/apperror"
	"github.com/arthurjuliorisa/imaps-sub001/internal/core/entity"
	"github.com/arthurjuliorisa/imaps-sub001/internal/core/id"
	"github.com/arthurjuliorisa/imaps-sub001/internal/domain/snapshot"
)

// fakeQueueRepo is an in-memory QueueRepository with the same dedup
// semantics as the Postgres implementation.
type fakeQueueRepo struct {
	entries map[id.ID]*entity.RecalcQueueEntry
}

func newFakeQueueRepo() *fakeQueueRepo {
	return &fakeQueueRepo{entries: make(map[id.ID]*entity.RecalcQueueEntry)}
}

func sameScope(a, b *entity.RecalcQueueEntry) bool {
	if (a.ItemType == nil) != (b.ItemType == nil) {
		return false
	}
	if a.ItemType != nil && *a.ItemType != *b.ItemType {
		return false
	}
	if (a.ItemCode == nil) != (b.ItemCode == nil) {
		return false
	}
	if a.ItemCode != nil && *a.ItemCode != *b.ItemCode {
		return false
	}
	return true
}

func (f *fakeQueueRepo) UpsertPending(_ context.Context, entry *entity.RecalcQueueEntry) (entity.RecalcQueueEntry, error) {
	for _, existing := range f.entries {
		if existing.CompanyCode != entry.CompanyCode || !existing.RecalcDate.Equal(entry.RecalcDate) {
			continue
		}
		if !sameScope(existing, entry) || existing.Status == entity.RecalcStatusFailed {
			continue
		}

		switch existing.Status {
		case entity.RecalcStatusPending, entity.RecalcStatusProcessing:
			if entry.Priority > existing.Priority {
				existing.Priority = entry.Priority
			}
			existing.Reason = entry.Reason
			existing.QueuedAt = entry.QueuedAt
		case entity.RecalcStatusCompleted:
			existing.Status = entity.RecalcStatusPending
			existing.Priority = entry.Priority
			existing.RetryCount = 0
			existing.Reason = entry.Reason
			existing.ErrorMessage = nil
			existing.QueuedAt = entry.QueuedAt
			existing.StartedAt = nil
			existing.CompletedAt = nil
		}
		return *existing, nil
	}

	stored := *entry
	f.entries[entry.ID] = &stored
	return stored, nil
}

func (f *fakeQueueRepo) GetByID(_ context.Context, entryID id.ID) (entity.RecalcQueueEntry, error) {
	if entry, ok := f.entries[entryID]; ok {
		return *entry, nil
	}
	return entity.RecalcQueueEntry{}, apperror.NewNotFound("queue entry", entryID)
}

func (f *fakeQueueRepo) List(_ context.Context, filter QueueFilter) ([]entity.RecalcQueueEntry, error) {
	var out []entity.RecalcQueueEntry
	for _, entry := range f.entries {
		if filter.CompanyCode != "" && entry.CompanyCode != filter.CompanyCode {
			continue
		}
		if filter.Status != nil && entry.Status != *filter.Status {
			continue
		}
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QueuedAt.After(out[j].QueuedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *fakeQueueRepo) ListPending(_ context.Context, limit int) ([]entity.RecalcQueueEntry, error) {
	var out []entity.RecalcQueueEntry
	for _, entry := range f.entries {
		if entry.Status == entity.RecalcStatusPending {
			out = append(out, *entry)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].QueuedAt.Before(out[j].QueuedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeQueueRepo) MarkProcessing(_ context.Context, entryID id.ID, at time.Time) error {
	entry, ok := f.entries[entryID]
	if !ok {
		return apperror.NewNotFound("queue entry", entryID)
	}
	entry.Status = entity.RecalcStatusProcessing
	entry.StartedAt = &at
	return nil
}

func (f *fakeQueueRepo) MarkCompleted(_ context.Context, entryID id.ID, at time.Time) error {
	entry, ok := f.entries[entryID]
	if !ok {
		return apperror.NewNotFound("queue entry", entryID)
	}
	entry.Status = entity.RecalcStatusCompleted
	entry.ErrorMessage = nil
	entry.CompletedAt = &at
	return nil
}

func (f *fakeQueueRepo) MarkFailed(_ context.Context, entryID id.ID, errMsg string, at time.Time) error {
	entry, ok := f.entries[entryID]
	if !ok {
		return apperror.NewNotFound("queue entry", entryID)
	}
	entry.Status = entity.RecalcStatusFailed
	entry.ErrorMessage = &errMsg
	entry.CompletedAt = &at
	return nil
}

func (f *fakeQueueRepo) ResetForRetry(_ context.Context, entryID id.ID, retryCount int, errMsg string) error {
	entry, ok := f.entries[entryID]
	if !ok {
		return apperror.NewNotFound("queue entry", entryID)
	}
	entry.Status = entity.RecalcStatusPending
	entry.RetryCount = retryCount
	entry.ErrorMessage = &errMsg
	entry.StartedAt = nil
	return nil
}

func (f *fakeQueueRepo) Reopen(_ context.Context, entryID id.ID, at time.Time) error {
	entry, ok := f.entries[entryID]
	if !ok {
		return apperror.NewNotFound("queue entry", entryID)
	}
	entry.Status = entity.RecalcStatusPending
	entry.RetryCount = 0
	entry.ErrorMessage = nil
	entry.QueuedAt = at
	entry.StartedAt = nil
	entry.CompletedAt = nil
	return nil
}

func (f *fakeQueueRepo) CountPending(_ context.Context) (int, error) {
	count := 0
	for _, entry := range f.entries {
		if entry.Status == entity.RecalcStatusPending {
			count++
		}
	}
	return count, nil
}

var _ QueueRepository = (*fakeQueueRepo)(nil)

// fakeCascadeRunner records cascade calls and fails on command.
type fakeCascadeRunner struct {
	calls []snapshot.CascadeInput
	errs  map[string]error // company|date -> error
}

func newFakeCascadeRunner() *fakeCascadeRunner {
	return &fakeCascadeRunner{errs: make(map[string]error)}
}

func (f *fakeCascadeRunner) failWith(company, date string, err error) {
	f.errs[company+"|"+date] = err
}

func (f *fakeCascadeRunner) Cascade(_ context.Context, in snapshot.CascadeInput) ([]snapshot.CalculationResult, error) {
	f.calls = append(f.calls, in)
	if err, ok := f.errs[in.CompanyCode+"|"+in.StartDate.Format(time.DateOnly)]; ok {
		return nil, err
	}
	return []snapshot.CalculationResult{{CompanyCode: in.CompanyCode, SnapshotDate: in.StartDate}}, nil
}

var _ CascadeRunner = (*fakeCascadeRunner)(nil)
