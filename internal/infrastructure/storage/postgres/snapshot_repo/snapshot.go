// Package snapshot_repo provides PostgreSQL implementations for the
// snapshot engine repositories.
package snapshot_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/arthurjuliorisa/imaps-sub001/internal/core/entity"
	"github.com/arthurjuliorisa/imaps-sub001/internal/core/types"
	"github.com/arthurjuliorisa/imaps-sub001/internal/domain/snapshot"
	"github.com/arthurjuliorisa/imaps-sub001/internal/infrastructure/storage/postgres"
)

const snapshotsTable = "stock_daily_snapshots"

var snapshotColumns = []string{
	"company_code", "item_type_code", "item_code", "snapshot_date",
	"item_name", "uom",
	"opening_balance", "incoming_qty", "outgoing_qty",
	"material_usage_qty", "production_qty", "adjustment_qty",
	"wip_balance_qty", "closing_balance",
	"calculation_method", "calculated_at",
}

// SnapshotRepo implements snapshot.SnapshotRepository.
type SnapshotRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewSnapshotRepo creates a new snapshot repository.
func NewSnapshotRepo(txm *postgres.TxManager) *SnapshotRepo {
	return &SnapshotRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// scopeConditions applies the item scope to a query.
func scopeConditions(q squirrel.SelectBuilder, scope snapshot.Scope) squirrel.SelectBuilder {
	if scope.ItemType != nil {
		q = q.Where(squirrel.Eq{"item_type_code": *scope.ItemType})
	}
	if scope.ItemCode != nil {
		q = q.Where(squirrel.Eq{"item_code": *scope.ItemCode})
	}
	return q
}

// FindPreviousClosing returns the closing balance of the most recent
// snapshot strictly before the given date.
func (r *SnapshotRepo) FindPreviousClosing(ctx context.Context, companyCode string, itemType entity.ItemTypeCode, itemCode string, before time.Time) (types.Quantity, bool, error) {
	q := r.builder.Select("closing_balance").
		From(snapshotsTable).
		Where(squirrel.Eq{
			"company_code":   companyCode,
			"item_type_code": itemType,
			"item_code":      itemCode,
		}).
		Where(squirrel.Lt{"snapshot_date": before}).
		OrderBy("snapshot_date DESC").
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return types.ZeroQuantity(), false, fmt.Errorf("build query: %w", err)
	}

	var closing types.Quantity
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &closing, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return types.ZeroQuantity(), false, nil
		}
		return types.ZeroQuantity(), false, fmt.Errorf("get previous closing: %w", err)
	}

	return closing, true, nil
}

// Upsert creates or fully replaces the snapshot row for its key.
func (r *SnapshotRepo) Upsert(ctx context.Context, snap *entity.StockDailySnapshot) error {
	q := r.builder.Insert(snapshotsTable).
		Columns(snapshotColumns...).
		Values(
			snap.CompanyCode, snap.ItemTypeCode, snap.ItemCode, snap.SnapshotDate,
			snap.ItemName, snap.UOM,
			snap.OpeningBalance, snap.IncomingQty, snap.OutgoingQty,
			snap.MaterialUsageQty, snap.ProductionQty, snap.AdjustmentQty,
			snap.WipBalanceQty, snap.ClosingBalance,
			snap.CalculationMethod, snap.CalculatedAt,
		).
		Suffix(`ON CONFLICT (company_code, item_type_code, item_code, snapshot_date) DO UPDATE SET
			item_name = EXCLUDED.item_name,
			uom = EXCLUDED.uom,
			opening_balance = EXCLUDED.opening_balance,
			incoming_qty = EXCLUDED.incoming_qty,
			outgoing_qty = EXCLUDED.outgoing_qty,
			material_usage_qty = EXCLUDED.material_usage_qty,
			production_qty = EXCLUDED.production_qty,
			adjustment_qty = EXCLUDED.adjustment_qty,
			wip_balance_qty = EXCLUDED.wip_balance_qty,
			closing_balance = EXCLUDED.closing_balance,
			calculation_method = EXCLUDED.calculation_method,
			calculated_at = EXCLUDED.calculated_at`)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}

	return nil
}

// DeleteByScope removes all snapshot rows for (company, date) within scope.
func (r *SnapshotRepo) DeleteByScope(ctx context.Context, companyCode string, date time.Time, scope snapshot.Scope) error {
	q := r.builder.Delete(snapshotsTable).
		Where(squirrel.Eq{
			"company_code":  companyCode,
			"snapshot_date": date,
		})
	if scope.ItemType != nil {
		q = q.Where(squirrel.Eq{"item_type_code": *scope.ItemType})
	}
	if scope.ItemCode != nil {
		q = q.Where(squirrel.Eq{"item_code": *scope.ItemCode})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete snapshots: %w", err)
	}

	return nil
}

// ListByScope returns the snapshot rows for (company, date) within scope.
func (r *SnapshotRepo) ListByScope(ctx context.Context, companyCode string, date time.Time, scope snapshot.Scope) ([]entity.StockDailySnapshot, error) {
	q := r.builder.Select(snapshotColumns...).
		From(snapshotsTable).
		Where(squirrel.Eq{
			"company_code":  companyCode,
			"snapshot_date": date,
		})
	q = scopeConditions(q, scope)
	q = q.OrderBy("item_type_code", "item_code")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []entity.StockDailySnapshot
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select snapshots: %w", err)
	}

	return rows, nil
}

// ListDatesAfter returns every distinct materialized snapshot date for the
// company (within scope) strictly after the given date, ascending.
func (r *SnapshotRepo) ListDatesAfter(ctx context.Context, companyCode string, after time.Time, scope snapshot.Scope) ([]time.Time, error) {
	q := r.builder.Select("DISTINCT snapshot_date").
		From(snapshotsTable).
		Where(squirrel.Eq{"company_code": companyCode}).
		Where(squirrel.Gt{"snapshot_date": after})
	q = scopeConditions(q, scope)
	q = q.OrderBy("snapshot_date ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var dates []time.Time
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &dates, sql, args...); err != nil {
		return nil, fmt.Errorf("select dates: %w", err)
	}

	return dates, nil
}

// ListItemKeys returns the distinct items with snapshot rows for the
// company. A nil onOrAfter means every item ever snapshotted.
func (r *SnapshotRepo) ListItemKeys(ctx context.Context, companyCode string, onOrAfter *time.Time) ([]snapshot.ItemKey, error) {
	q := r.builder.Select(
		"DISTINCT ON (item_type_code, item_code) item_type_code", "item_code", "item_name", "uom",
	).From(snapshotsTable).
		Where(squirrel.Eq{"company_code": companyCode})
	if onOrAfter != nil {
		q = q.Where(squirrel.GtOrEq{"snapshot_date": *onOrAfter})
	}
	q = q.OrderBy("item_type_code", "item_code", "snapshot_date DESC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var keys []snapshot.ItemKey
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &keys, sql, args...); err != nil {
		return nil, fmt.Errorf("select item keys: %w", err)
	}

	return keys, nil
}

// ListCompanyCodes returns every company known to the ledger.
func (r *SnapshotRepo) ListCompanyCodes(ctx context.Context) ([]string, error) {
	sql := `
		SELECT company_code FROM stock_daily_snapshots
		UNION
		SELECT company_code FROM beginning_balances
		ORDER BY company_code
	`

	var codes []string
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &codes, sql); err != nil {
		return nil, fmt.Errorf("select company codes: %w", err)
	}

	return codes, nil
}

// RefreshReportingViews refreshes the materialized views reading the
// snapshot table. CONCURRENTLY keeps reporting reads available during
// the refresh.
func (r *SnapshotRepo) RefreshReportingViews(ctx context.Context) error {
	views := []string{
		"mv_stock_balance_current",
		"mv_stock_balance_monthly",
	}

	querier := r.txm.GetQuerier(ctx)
	for _, view := range views {
		if _, err := querier.Exec(ctx, "REFRESH MATERIALIZED VIEW CONCURRENTLY "+view); err != nil {
			return fmt.Errorf("refresh %s: %w", view, err)
		}
	}

	return nil
}

// Ensure interface compliance.
var _ snapshot.SnapshotRepository = (*SnapshotRepo)(nil)
