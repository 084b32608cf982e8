package snapshot_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/arthurjuliorisa/imaps-sub001/internal/core/entity"
	"github.com/arthurjuliorisa/imaps-sub001/internal/domain/snapshot"
	"github.com/arthurjuliorisa/imaps-sub001/internal/infrastructure/storage/postgres"
)

const beginningBalancesTable = "beginning_balances"

// BeginningBalanceRepo implements snapshot.BeginningBalanceRepository.
// The table is written by the data intake system; this side only reads.
type BeginningBalanceRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewBeginningBalanceRepo creates a new beginning balance repository.
func NewBeginningBalanceRepo(txm *postgres.TxManager) *BeginningBalanceRepo {
	return &BeginningBalanceRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// FindEffective returns the most recent beginning balance with balance_date
// on or before the given date.
func (r *BeginningBalanceRepo) FindEffective(ctx context.Context, companyCode string, itemType entity.ItemTypeCode, itemCode string, onOrBefore time.Time) (entity.BeginningBalance, bool, error) {
	q := r.builder.Select(
		"company_code", "item_code", "item_type_code", "item_name", "uom",
		"balance_qty", "balance_date",
	).From(beginningBalancesTable).
		Where(squirrel.Eq{
			"company_code":   companyCode,
			"item_type_code": itemType,
			"item_code":      itemCode,
		}).
		Where(squirrel.LtOrEq{"balance_date": onOrBefore}).
		OrderBy("balance_date DESC").
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return entity.BeginningBalance{}, false, fmt.Errorf("build query: %w", err)
	}

	var balance entity.BeginningBalance
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &balance, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity.BeginningBalance{}, false, nil
		}
		return entity.BeginningBalance{}, false, fmt.Errorf("get beginning balance: %w", err)
	}

	return balance, true, nil
}

// ListItemKeysEffective returns items with a beginning balance effective on
// or before the given date.
func (r *BeginningBalanceRepo) ListItemKeysEffective(ctx context.Context, companyCode string, onOrBefore time.Time) ([]snapshot.ItemKey, error) {
	q := r.builder.Select(
		"DISTINCT ON (item_type_code, item_code) item_type_code", "item_code", "item_name", "uom",
	).From(beginningBalancesTable).
		Where(squirrel.Eq{"company_code": companyCode}).
		Where(squirrel.LtOrEq{"balance_date": onOrBefore}).
		OrderBy("item_type_code", "item_code", "balance_date DESC")

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

// Ensure interface compliance.
var _ snapshot.BeginningBalanceRepository = (*BeginningBalanceRepo)(nil)
