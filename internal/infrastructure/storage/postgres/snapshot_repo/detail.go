package snapshot_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/arthurjuliorisa/imaps-sub001/internal/core/types"
	"github.com/arthurjuliorisa/imaps-sub001/internal/domain/snapshot"
	"github.com/arthurjuliorisa/imaps-sub001/internal/infrastructure/storage/postgres"
)

// Transaction source tables, written by the data intake system.
const (
	incomingTable      = "tx_incoming"
	outgoingTable      = "tx_outgoing"
	materialUsageTable = "tx_material_usage"
	productionTable    = "tx_production"
	adjustmentTable    = "tx_adjustment"
	wipBalancesTable   = "wip_balances"
)

// TransactionDetailRepo implements snapshot.TransactionDetailRepository.
// It only ever aggregates; the write side of these tables belongs to the
// intake system.
type TransactionDetailRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewTransactionDetailRepo creates a new transaction detail repository.
func NewTransactionDetailRepo(txm *postgres.TxManager) *TransactionDetailRepo {
	return &TransactionDetailRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// sumTable aggregates quantity for one movement table and day.
func (r *TransactionDetailRepo) sumTable(ctx context.Context, table, companyCode, itemCode string, date time.Time) (types.Quantity, error) {
	sql := fmt.Sprintf(`
		SELECT COALESCE(SUM(quantity), 0)
		FROM %s
		WHERE company_code = $1 AND item_code = $2 AND transaction_date = $3
	`, table)

	var total types.Quantity
	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, companyCode, itemCode, date).Scan(&total); err != nil {
		return types.ZeroQuantity(), fmt.Errorf("sum %s: %w", table, err)
	}

	return total, nil
}

func (r *TransactionDetailRepo) SumIncoming(ctx context.Context, companyCode, itemCode string, date time.Time) (types.Quantity, error) {
	return r.sumTable(ctx, incomingTable, companyCode, itemCode, date)
}

func (r *TransactionDetailRepo) SumOutgoing(ctx context.Context, companyCode, itemCode string, date time.Time) (types.Quantity, error) {
	return r.sumTable(ctx, outgoingTable, companyCode, itemCode, date)
}

func (r *TransactionDetailRepo) SumMaterialUsage(ctx context.Context, companyCode, itemCode string, date time.Time) (types.Quantity, error) {
	return r.sumTable(ctx, materialUsageTable, companyCode, itemCode, date)
}

func (r *TransactionDetailRepo) SumProduction(ctx context.Context, companyCode, itemCode string, date time.Time) (types.Quantity, error) {
	return r.sumTable(ctx, productionTable, companyCode, itemCode, date)
}

func (r *TransactionDetailRepo) SumAdjustment(ctx context.Context, companyCode, itemCode string, date time.Time) (types.Quantity, error) {
	return r.sumTable(ctx, adjustmentTable, companyCode, itemCode, date)
}

// FindWipBalance returns the externally observed WIP balance for the date,
// if one was recorded.
func (r *TransactionDetailRepo) FindWipBalance(ctx context.Context, companyCode, itemCode string, date time.Time) (types.Quantity, bool, error) {
	q := r.builder.Select("balance_qty").
		From(wipBalancesTable).
		Where(squirrel.Eq{
			"company_code": companyCode,
			"item_code":    itemCode,
			"balance_date": date,
		}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return types.ZeroQuantity(), false, fmt.Errorf("build query: %w", err)
	}

	var balance types.Quantity
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &balance, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return types.ZeroQuantity(), false, nil
		}
		return types.ZeroQuantity(), false, fmt.Errorf("get wip balance: %w", err)
	}

	return balance, true, nil
}

// ListItemKeysWithActivity returns items appearing in any transaction
// source on or after the given date.
func (r *TransactionDetailRepo) ListItemKeysWithActivity(ctx context.Context, companyCode string, onOrAfter time.Time) ([]snapshot.ItemKey, error) {
	sql := `
		SELECT DISTINCT ON (item_type_code, item_code)
			item_type_code, item_code, item_name, uom
		FROM (
			SELECT item_type_code, item_code, item_name, uom, transaction_date FROM tx_incoming
				WHERE company_code = $1 AND transaction_date >= $2
			UNION ALL
			SELECT item_type_code, item_code, item_name, uom, transaction_date FROM tx_outgoing
				WHERE company_code = $1 AND transaction_date >= $2
			UNION ALL
			SELECT item_type_code, item_code, item_name, uom, transaction_date FROM tx_material_usage
				WHERE company_code = $1 AND transaction_date >= $2
			UNION ALL
			SELECT item_type_code, item_code, item_name, uom, transaction_date FROM tx_production
				WHERE company_code = $1 AND transaction_date >= $2
			UNION ALL
			SELECT item_type_code, item_code, item_name, uom, transaction_date FROM tx_adjustment
				WHERE company_code = $1 AND transaction_date >= $2
			UNION ALL
			SELECT 'HALB' AS item_type_code, item_code, item_name, uom, balance_date AS transaction_date FROM wip_balances
				WHERE company_code = $1 AND balance_date >= $2
		) activity
		ORDER BY item_type_code, item_code, transaction_date DESC
	`

	var keys []snapshot.ItemKey
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &keys, sql, companyCode, onOrAfter); err != nil {
		return nil, fmt.Errorf("select active item keys: %w", err)
	}

	return keys, nil
}

// ListTouchedSince returns the (company, business date) pairs touched by
// transaction rows created after the given instant.
func (r *TransactionDetailRepo) ListTouchedSince(ctx context.Context, createdAfter time.Time) ([]snapshot.CompanyDate, error) {
	sql := `
		SELECT DISTINCT company_code, touch_date
		FROM (
			SELECT company_code, transaction_date AS touch_date FROM tx_incoming WHERE created_at > $1
			UNION ALL
			SELECT company_code, transaction_date AS touch_date FROM tx_outgoing WHERE created_at > $1
			UNION ALL
			SELECT company_code, transaction_date AS touch_date FROM tx_material_usage WHERE created_at > $1
			UNION ALL
			SELECT company_code, transaction_date AS touch_date FROM tx_production WHERE created_at > $1
			UNION ALL
			SELECT company_code, transaction_date AS touch_date FROM tx_adjustment WHERE created_at > $1
			UNION ALL
			SELECT company_code, balance_date AS touch_date FROM wip_balances WHERE created_at > $1
		) touched
		ORDER BY company_code, touch_date
	`

	var pairs []snapshot.CompanyDate
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &pairs, sql, createdAfter); err != nil {
		return nil, fmt.Errorf("select touched dates: %w", err)
	}

	return pairs, nil
}

// Ensure interface compliance.
var _ snapshot.TransactionDetailRepository = (*TransactionDetailRepo)(nil)
