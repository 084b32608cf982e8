package snapshot

import (
	"context"
	"time"

	"github.com/arthurjuliorisa/imaps-sub001/internal/core/entity"
	"github.com/arthurjuliorisa/imaps-sub001/internal/core/types"
)

// SnapshotRepository persists daily snapshots.
type SnapshotRepository interface {
	// FindPreviousClosing returns the closing balance of the most recent
	// snapshot strictly before the given date.
	FindPreviousClosing(ctx context.Context, companyCode string, itemType entity.ItemTypeCode, itemCode string, before time.Time) (types.Quantity, bool, error)

	// Upsert creates or fully replaces the snapshot row for its key.
	Upsert(ctx context.Context, snap *entity.StockDailySnapshot) error

	// DeleteByScope removes all snapshot rows for (company, date) within scope.
	// Full recompute deletes before reinserting so re-runs converge.
	DeleteByScope(ctx context.Context, companyCode string, date time.Time, scope Scope) error

	// ListByScope returns the snapshot rows for (company, date) within scope.
	ListByScope(ctx context.Context, companyCode string, date time.Time, scope Scope) ([]entity.StockDailySnapshot, error)

	// ListDatesAfter returns every distinct materialized snapshot date for
	// the company (within scope) strictly after the given date, ascending.
	ListDatesAfter(ctx context.Context, companyCode string, after time.Time, scope Scope) ([]time.Time, error)

	// ListItemKeys returns the distinct items with snapshot rows for the
	// company. A nil onOrAfter means every item ever snapshotted.
	ListItemKeys(ctx context.Context, companyCode string, onOrAfter *time.Time) ([]ItemKey, error)

	// ListCompanyCodes returns every company known to the ledger.
	ListCompanyCodes(ctx context.Context) ([]string, error)

	// RefreshReportingViews refreshes the downstream reporting views that
	// read the snapshot table.
	RefreshReportingViews(ctx context.Context) error
}

// BeginningBalanceRepository reads externally supplied anchor balances.
type BeginningBalanceRepository interface {
	// FindEffective returns the most recent beginning balance with
	// balance_date on or before the given date.
	FindEffective(ctx context.Context, companyCode string, itemType entity.ItemTypeCode, itemCode string, onOrBefore time.Time) (entity.BeginningBalance, bool, error)

	// ListItemKeysEffective returns items with a beginning balance effective
	// on or before the given date.
	ListItemKeysEffective(ctx context.Context, companyCode string, onOrBefore time.Time) ([]ItemKey, error)
}

// TransactionDetailRepository aggregates the external transaction sources.
// The engine only ever reads SUM(quantity) grouped by (company, item, date);
// the write side of these tables belongs to another system.
type TransactionDetailRepository interface {
	SumIncoming(ctx context.Context, companyCode, itemCode string, date time.Time) (types.Quantity, error)
	SumOutgoing(ctx context.Context, companyCode, itemCode string, date time.Time) (types.Quantity, error)
	SumMaterialUsage(ctx context.Context, companyCode, itemCode string, date time.Time) (types.Quantity, error)
	SumProduction(ctx context.Context, companyCode, itemCode string, date time.Time) (types.Quantity, error)
	SumAdjustment(ctx context.Context, companyCode, itemCode string, date time.Time) (types.Quantity, error)

	// FindWipBalance returns the externally observed WIP balance for the
	// date, if one was recorded.
	FindWipBalance(ctx context.Context, companyCode, itemCode string, date time.Time) (types.Quantity, bool, error)

	// ListItemKeysWithActivity returns items appearing in any transaction
	// source on or after the given date.
	ListItemKeysWithActivity(ctx context.Context, companyCode string, onOrAfter time.Time) ([]ItemKey, error)

	// ListTouchedSince returns the (company, business date) pairs touched by
	// transaction rows created after the given instant. Drives the hourly
	// incremental pass.
	ListTouchedSince(ctx context.Context, createdAfter time.Time) ([]CompanyDate, error)
}
