package batch

import (
	"context"
	"time"

	"github.com/arthurjuliorisa/imaps-sub001/internal/core/entity"
	"github.com/arthurjuliorisa/imaps-sub001/internal/core/id"
	"github.com/arthurjuliorisa/imaps-sub001/internal/core/types"
	"github.com/arthurjuliorisa/imaps-sub001/internal/domain/recalc"
	"github.com/arthurjuliorisa/imaps-sub001/internal/domain/snapshot"
)

type fakeJobLog struct {
	created  []entity.BatchJobLog
	finished []entity.BatchJobLog
}

func (f *fakeJobLog) Create(_ context.Context, log *entity.BatchJobLog) error {
	f.created = append(f.created, *log)
	return nil
}

func (f *fakeJobLog) Finish(_ context.Context, log *entity.BatchJobLog) error {
	f.finished = append(f.finished, *log)
	return nil
}

func (f *fakeJobLog) ListRecent(_ context.Context, jobType *entity.JobType, limit int) ([]entity.BatchJobLog, error) {
	var out []entity.BatchJobLog
	for i := len(f.finished) - 1; i >= 0; i-- {
		if jobType != nil && f.finished[i].JobType != *jobType {
			continue
		}
		out = append(out, f.finished[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

var _ JobLogRepository = (*fakeJobLog)(nil)

type fakeCalculator struct {
	calls []snapshot.CalculateInput
	errs  map[string]error // company -> error
}

func newFakeCalculator() *fakeCalculator {
	return &fakeCalculator{errs: make(map[string]error)}
}

func (f *fakeCalculator) Calculate(_ context.Context, in snapshot.CalculateInput) (snapshot.CalculationResult, error) {
	f.calls = append(f.calls, in)
	if err, ok := f.errs[in.CompanyCode]; ok {
		return snapshot.CalculationResult{}, err
	}
	return snapshot.CalculationResult{CompanyCode: in.CompanyCode, SnapshotDate: in.TargetDate}, nil
}

var _ Calculator = (*fakeCalculator)(nil)

type fakeDrainer struct {
	stats recalc.BatchStats
	err   error
}

func (f *fakeDrainer) ProcessBatch(context.Context) (recalc.BatchStats, error) {
	return f.stats, f.err
}

var _ QueueDrainer = (*fakeDrainer)(nil)

// fakeSnapshotSource serves only the calls the batch jobs make.
type fakeSnapshotSource struct {
	companies  []string
	touched    []snapshot.CompanyDate
	sinceCalls []time.Time
	refreshed  int
	refreshEr  error
}

func (f *fakeSnapshotSource) FindPreviousClosing(context.Context, string, entity.ItemTypeCode, string, time.Time) (types.Quantity, bool, error) {
	return types.ZeroQuantity(), false, nil
}

func (f *fakeSnapshotSource) Upsert(context.Context, *entity.StockDailySnapshot) error { return nil }

func (f *fakeSnapshotSource) DeleteByScope(context.Context, string, time.Time, snapshot.Scope) error {
	return nil
}

func (f *fakeSnapshotSource) ListByScope(context.Context, string, time.Time, snapshot.Scope) ([]entity.StockDailySnapshot, error) {
	return nil, nil
}

func (f *fakeSnapshotSource) ListDatesAfter(context.Context, string, time.Time, snapshot.Scope) ([]time.Time, error) {
	return nil, nil
}

func (f *fakeSnapshotSource) ListItemKeys(context.Context, string, *time.Time) ([]snapshot.ItemKey, error) {
	return nil, nil
}

func (f *fakeSnapshotSource) ListCompanyCodes(context.Context) ([]string, error) {
	return f.companies, nil
}

func (f *fakeSnapshotSource) RefreshReportingViews(context.Context) error {
	f.refreshed++
	return f.refreshEr
}

func (f *fakeSnapshotSource) SumIncoming(context.Context, string, string, time.Time) (types.Quantity, error) {
	return types.ZeroQuantity(), nil
}

func (f *fakeSnapshotSource) SumOutgoing(context.Context, string, string, time.Time) (types.Quantity, error) {
	return types.ZeroQuantity(), nil
}

func (f *fakeSnapshotSource) SumMaterialUsage(context.Context, string, string, time.Time) (types.Quantity, error) {
	return types.ZeroQuantity(), nil
}

func (f *fakeSnapshotSource) SumProduction(context.Context, string, string, time.Time) (types.Quantity, error) {
	return types.ZeroQuantity(), nil
}

func (f *fakeSnapshotSource) SumAdjustment(context.Context, string, string, time.Time) (types.Quantity, error) {
	return types.ZeroQuantity(), nil
}

func (f *fakeSnapshotSource) FindWipBalance(context.Context, string, string, time.Time) (types.Quantity, bool, error) {
	return types.ZeroQuantity(), false, nil
}

func (f *fakeSnapshotSource) ListItemKeysWithActivity(context.Context, string, time.Time) ([]snapshot.ItemKey, error) {
	return nil, nil
}

func (f *fakeSnapshotSource) ListTouchedSince(_ context.Context, createdAfter time.Time) ([]snapshot.CompanyDate, error) {
	f.sinceCalls = append(f.sinceCalls, createdAfter)
	return f.touched, nil
}

var (
	_ snapshot.SnapshotRepository          = (*fakeSnapshotSource)(nil)
	_ snapshot.TransactionDetailRepository = (*fakeSnapshotSource)(nil)
)

// fakeQueue backs a real recalc.Service; only UpsertPending matters here.
type fakeQueue struct {
	entries []entity.RecalcQueueEntry
}

func (f *fakeQueue) UpsertPending(_ context.Context, entry *entity.RecalcQueueEntry) (entity.RecalcQueueEntry, error) {
	f.entries = append(f.entries, *entry)
	return *entry, nil
}

func (f *fakeQueue) GetByID(context.Context, id.ID) (entity.RecalcQueueEntry, error) {
	return entity.RecalcQueueEntry{}, nil
}

func (f *fakeQueue) List(context.Context, recalc.QueueFilter) ([]entity.RecalcQueueEntry, error) {
	return nil, nil
}

func (f *fakeQueue) ListPending(context.Context, int) ([]entity.RecalcQueueEntry, error) {
	return nil, nil
}

func (f *fakeQueue) MarkProcessing(context.Context, id.ID, time.Time) error { return nil }

func (f *fakeQueue) MarkCompleted(context.Context, id.ID, time.Time) error { return nil }

func (f *fakeQueue) MarkFailed(context.Context, id.ID, string, time.Time) error { return nil }

func (f *fakeQueue) ResetForRetry(context.Context, id.ID, int, string) error { return nil }

func (f *fakeQueue) Reopen(context.Context, id.ID, time.Time) error { return nil }

func (f *fakeQueue) CountPending(context.Context) (int, error) { return 0, nil }

var _ recalc.QueueRepository = (*fakeQueue)(nil)
