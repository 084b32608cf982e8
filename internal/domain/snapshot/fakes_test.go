package snapshot

import (
	"context"
	"sort"
	"time"

	"github.com/arthurjuliorisa/imaps-sub001/internal/core/entity"
	"github.com/arthurjuliorisa/imaps-sub001/internal/core/types"
)

// fakeTxManager satisfies tx.Manager without a database. The engine's
// transactional behavior itself is exercised against Postgres; these tests
// cover calculation semantics.
type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (fakeTxManager) RunSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type snapKey struct {
	company  string
	itemType entity.ItemTypeCode
	itemCode string
	date     string
}

type movKey struct {
	company  string
	itemCode string
	date     string
}

type activityRow struct {
	key  ItemKey
	date time.Time
}

// fakeStore is an in-memory stand-in for all three engine repositories.
type fakeStore struct {
	snapshots  map[snapKey]entity.StockDailySnapshot
	beginnings []entity.BeginningBalance

	incoming      map[movKey]types.Quantity
	outgoing      map[movKey]types.Quantity
	materialUsage map[movKey]types.Quantity
	production    map[movKey]types.Quantity
	adjustment    map[movKey]types.Quantity
	wip           map[movKey]types.Quantity

	activity []activityRow
	refreshd int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		snapshots:     make(map[snapKey]entity.StockDailySnapshot),
		incoming:      make(map[movKey]types.Quantity),
		outgoing:      make(map[movKey]types.Quantity),
		materialUsage: make(map[movKey]types.Quantity),
		production:    make(map[movKey]types.Quantity),
		adjustment:    make(map[movKey]types.Quantity),
		wip:           make(map[movKey]types.Quantity),
	}
}

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func keyFor(company string, snap *entity.StockDailySnapshot) snapKey {
	return snapKey{
		company:  company,
		itemType: snap.ItemTypeCode,
		itemCode: snap.ItemCode,
		date:     snap.SnapshotDate.Format(time.DateOnly),
	}
}

func (f *fakeStore) movKey(company, itemCode string, date time.Time) movKey {
	return movKey{company: company, itemCode: itemCode, date: date.Format(time.DateOnly)}
}

func (f *fakeStore) addBeginning(company string, key ItemKey, date, qty string) {
	f.beginnings = append(f.beginnings, entity.BeginningBalance{
		CompanyCode:  company,
		ItemCode:     key.ItemCode,
		ItemTypeCode: key.ItemType,
		ItemName:     key.ItemName,
		UOM:          key.UOM,
		BalanceQty:   types.MustQuantity(qty),
		BalanceDate:  day(date),
	})
}

func (f *fakeStore) addMovement(m map[movKey]types.Quantity, company string, key ItemKey, date, qty string) {
	k := f.movKey(company, key.ItemCode, day(date))
	existing, ok := m[k]
	if !ok {
		existing = types.ZeroQuantity()
	}
	m[k] = existing.Add(types.MustQuantity(qty))
	f.activity = append(f.activity, activityRow{key: key, date: day(date)})
}

func (f *fakeStore) addIncoming(company string, key ItemKey, date, qty string) {
	f.addMovement(f.incoming, company, key, date, qty)
}

func (f *fakeStore) addOutgoing(company string, key ItemKey, date, qty string) {
	f.addMovement(f.outgoing, company, key, date, qty)
}

func (f *fakeStore) addMaterialUsage(company string, key ItemKey, date, qty string) {
	f.addMovement(f.materialUsage, company, key, date, qty)
}

func (f *fakeStore) addProduction(company string, key ItemKey, date, qty string) {
	f.addMovement(f.production, company, key, date, qty)
}

func (f *fakeStore) addAdjustment(company string, key ItemKey, date, qty string) {
	f.addMovement(f.adjustment, company, key, date, qty)
}

func (f *fakeStore) addWip(company string, key ItemKey, date, qty string) {
	f.wip[f.movKey(company, key.ItemCode, day(date))] = types.MustQuantity(qty)
	f.activity = append(f.activity, activityRow{key: key, date: day(date)})
}

// --- SnapshotRepository ---

func (f *fakeStore) FindPreviousClosing(_ context.Context, companyCode string, itemType entity.ItemTypeCode, itemCode string, before time.Time) (types.Quantity, bool, error) {
	var (
		best  time.Time
		found bool
		qty   types.Quantity
	)
	for k, snap := range f.snapshots {
		if k.company != companyCode || k.itemType != itemType || k.itemCode != itemCode {
			continue
		}
		if !snap.SnapshotDate.Before(before) {
			continue
		}
		if !found || snap.SnapshotDate.After(best) {
			best = snap.SnapshotDate
			qty = snap.ClosingBalance
			found = true
		}
	}
	return qty, found, nil
}

func (f *fakeStore) Upsert(_ context.Context, snap *entity.StockDailySnapshot) error {
	f.snapshots[keyFor(snap.CompanyCode, snap)] = *snap
	return nil
}

func (f *fakeStore) DeleteByScope(_ context.Context, companyCode string, date time.Time, scope Scope) error {
	for k, snap := range f.snapshots {
		if k.company != companyCode || !snap.SnapshotDate.Equal(date) {
			continue
		}
		if !scope.Matches(ItemKey{ItemType: snap.ItemTypeCode, ItemCode: snap.ItemCode}) {
			continue
		}
		delete(f.snapshots, k)
	}
	return nil
}

func (f *fakeStore) ListByScope(_ context.Context, companyCode string, date time.Time, scope Scope) ([]entity.StockDailySnapshot, error) {
	var rows []entity.StockDailySnapshot
	for k, snap := range f.snapshots {
		if k.company != companyCode || !snap.SnapshotDate.Equal(date) {
			continue
		}
		if !scope.Matches(ItemKey{ItemType: snap.ItemTypeCode, ItemCode: snap.ItemCode}) {
			continue
		}
		rows = append(rows, snap)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ItemTypeCode != rows[j].ItemTypeCode {
			return rows[i].ItemTypeCode < rows[j].ItemTypeCode
		}
		return rows[i].ItemCode < rows[j].ItemCode
	})
	return rows, nil
}

func (f *fakeStore) ListDatesAfter(_ context.Context, companyCode string, after time.Time, scope Scope) ([]time.Time, error) {
	seen := make(map[string]time.Time)
	for k, snap := range f.snapshots {
		if k.company != companyCode || !snap.SnapshotDate.After(after) {
			continue
		}
		if !scope.Matches(ItemKey{ItemType: snap.ItemTypeCode, ItemCode: snap.ItemCode}) {
			continue
		}
		seen[k.date] = snap.SnapshotDate
	}
	dates := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

func (f *fakeStore) ListItemKeys(_ context.Context, companyCode string, onOrAfter *time.Time) ([]ItemKey, error) {
	seen := make(map[string]ItemKey)
	for k, snap := range f.snapshots {
		if k.company != companyCode {
			continue
		}
		if onOrAfter != nil && snap.SnapshotDate.Before(*onOrAfter) {
			continue
		}
		seen[string(k.itemType)+"|"+k.itemCode] = ItemKey{
			ItemType: snap.ItemTypeCode,
			ItemCode: snap.ItemCode,
			ItemName: snap.ItemName,
			UOM:      snap.UOM,
		}
	}
	keys := make([]ItemKey, 0, len(seen))
	for _, key := range seen {
		keys = append(keys, key)
	}
	return keys, nil
}

func (f *fakeStore) ListCompanyCodes(_ context.Context) ([]string, error) {
	seen := make(map[string]bool)
	for k := range f.snapshots {
		seen[k.company] = true
	}
	for _, bb := range f.beginnings {
		seen[bb.CompanyCode] = true
	}
	codes := make([]string, 0, len(seen))
	for c := range seen {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes, nil
}

func (f *fakeStore) RefreshReportingViews(_ context.Context) error {
	f.refreshd++
	return nil
}

// --- BeginningBalanceRepository ---

func (f *fakeStore) FindEffective(_ context.Context, companyCode string, itemType entity.ItemTypeCode, itemCode string, onOrBefore time.Time) (entity.BeginningBalance, bool, error) {
	var (
		best  entity.BeginningBalance
		found bool
	)
	for _, bb := range f.beginnings {
		if bb.CompanyCode != companyCode || bb.ItemTypeCode != itemType || bb.ItemCode != itemCode {
			continue
		}
		if bb.BalanceDate.After(onOrBefore) {
			continue
		}
		if !found || bb.BalanceDate.After(best.BalanceDate) {
			best = bb
			found = true
		}
	}
	return best, found, nil
}

func (f *fakeStore) ListItemKeysEffective(_ context.Context, companyCode string, onOrBefore time.Time) ([]ItemKey, error) {
	seen := make(map[string]ItemKey)
	for _, bb := range f.beginnings {
		if bb.CompanyCode != companyCode || bb.BalanceDate.After(onOrBefore) {
			continue
		}
		seen[string(bb.ItemTypeCode)+"|"+bb.ItemCode] = ItemKey{
			ItemType: bb.ItemTypeCode,
			ItemCode: bb.ItemCode,
			ItemName: bb.ItemName,
			UOM:      bb.UOM,
		}
	}
	keys := make([]ItemKey, 0, len(seen))
	for _, key := range seen {
		keys = append(keys, key)
	}
	return keys, nil
}

// --- TransactionDetailRepository ---

func (f *fakeStore) sum(m map[movKey]types.Quantity, companyCode, itemCode string, date time.Time) types.Quantity {
	if qty, ok := m[f.movKey(companyCode, itemCode, date)]; ok {
		return qty
	}
	return types.ZeroQuantity()
}

func (f *fakeStore) SumIncoming(_ context.Context, companyCode, itemCode string, date time.Time) (types.Quantity, error) {
	return f.sum(f.incoming, companyCode, itemCode, date), nil
}

func (f *fakeStore) SumOutgoing(_ context.Context, companyCode, itemCode string, date time.Time) (types.Quantity, error) {
	return f.sum(f.outgoing, companyCode, itemCode, date), nil
}

func (f *fakeStore) SumMaterialUsage(_ context.Context, companyCode, itemCode string, date time.Time) (types.Quantity, error) {
	return f.sum(f.materialUsage, companyCode, itemCode, date), nil
}

func (f *fakeStore) SumProduction(_ context.Context, companyCode, itemCode string, date time.Time) (types.Quantity, error) {
	return f.sum(f.production, companyCode, itemCode, date), nil
}

func (f *fakeStore) SumAdjustment(_ context.Context, companyCode, itemCode string, date time.Time) (types.Quantity, error) {
	return f.sum(f.adjustment, companyCode, itemCode, date), nil
}

func (f *fakeStore) FindWipBalance(_ context.Context, companyCode, itemCode string, date time.Time) (types.Quantity, bool, error) {
	qty, ok := f.wip[f.movKey(companyCode, itemCode, date)]
	return qty, ok, nil
}

func (f *fakeStore) ListItemKeysWithActivity(_ context.Context, _ string, onOrAfter time.Time) ([]ItemKey, error) {
	seen := make(map[string]ItemKey)
	for _, row := range f.activity {
		if row.date.Before(onOrAfter) {
			continue
		}
		seen[string(row.key.ItemType)+"|"+row.key.ItemCode] = row.key
	}
	keys := make([]ItemKey, 0, len(seen))
	for _, key := range seen {
		keys = append(keys, key)
	}
	return keys, nil
}

func (f *fakeStore) ListTouchedSince(_ context.Context, _ time.Time) ([]CompanyDate, error) {
	return nil, nil
}

// newTestEngine wires an engine over one fake store.
func newTestEngine(store *fakeStore) *Engine {
	calc := NewCalculator(store, store, store)
	return NewEngine(calc, store, fakeTxManager{})
}
