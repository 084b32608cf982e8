package snapshot

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/arthurjuliorisa/imaps-sub001/internal/core/entity"
	"github.com/arthurjuliorisa/imaps-sub001/internal/core/types"
)

// Calculator derives one item-day snapshot from the opening balance and the
// aggregated movements, or from an externally observed WIP record. It does
// not persist anything; the Engine owns transactions and writes.
type Calculator struct {
	snapshots  SnapshotRepository
	beginnings BeginningBalanceRepository
	details    TransactionDetailRepository
	resolver   *Resolver
	now        func() time.Time
}

// NewCalculator creates a balance calculator over the given repositories.
func NewCalculator(
	snapshots SnapshotRepository,
	beginnings BeginningBalanceRepository,
	details TransactionDetailRepository,
) *Calculator {
	return &Calculator{
		snapshots:  snapshots,
		beginnings: beginnings,
		details:    details,
		resolver:   NewResolver(snapshots, beginnings),
		now:        time.Now,
	}
}

// ComputeItem builds the snapshot row for one item on one date.
func (c *Calculator) ComputeItem(ctx context.Context, companyCode string, key ItemKey, date time.Time) (entity.StockDailySnapshot, error) {
	date = types.DateOf(date)

	opening, err := c.resolver.ResolveOpening(ctx, companyCode, key.ItemType, key.ItemCode, date)
	if err != nil {
		return entity.StockDailySnapshot{}, fmt.Errorf("resolve opening for %s: %w", key.ItemCode, err)
	}

	snap := entity.StockDailySnapshot{
		CompanyCode:      companyCode,
		ItemTypeCode:     key.ItemType,
		ItemCode:         key.ItemCode,
		SnapshotDate:     date,
		ItemName:         key.ItemName,
		UOM:              key.UOM,
		OpeningBalance:   opening,
		IncomingQty:      types.ZeroQuantity(),
		OutgoingQty:      types.ZeroQuantity(),
		MaterialUsageQty: types.ZeroQuantity(),
		ProductionQty:    types.ZeroQuantity(),
		AdjustmentQty:    types.ZeroQuantity(),
		WipBalanceQty:    types.ZeroQuantity(),
		CalculatedAt:     c.now().UTC(),
	}

	formula := FormulaFor(key.ItemType)
	snap.CalculationMethod = formula.Method

	if formula.Method == entity.MethodWIPSnapshot {
		return c.computeWipItem(ctx, snap, opening, date)
	}

	mv, err := c.sumMovements(ctx, companyCode, key.ItemCode, date, formula)
	if err != nil {
		return entity.StockDailySnapshot{}, fmt.Errorf("aggregate movements for %s: %w", key.ItemCode, err)
	}

	snap.IncomingQty = mv.Incoming
	snap.OutgoingQty = mv.Outgoing
	snap.MaterialUsageQty = mv.MaterialUsage
	snap.ProductionQty = mv.Production
	snap.AdjustmentQty = mv.Adjustment
	snap.ClosingBalance = formula.Closing(opening, mv)

	return snap, nil
}

// computeWipItem fills a WIP row: the observed balance when one exists for
// the date, otherwise the previous day's closing carried forward. Either
// way opening = closing = wip_balance_qty.
func (c *Calculator) computeWipItem(ctx context.Context, snap entity.StockDailySnapshot, opening types.Quantity, date time.Time) (entity.StockDailySnapshot, error) {
	observed, ok, err := c.details.FindWipBalance(ctx, snap.CompanyCode, snap.ItemCode, date)
	if err != nil {
		return entity.StockDailySnapshot{}, fmt.Errorf("find wip balance for %s: %w", snap.ItemCode, err)
	}

	balance := opening
	if ok {
		balance = observed
	}

	snap.OpeningBalance = balance
	snap.ClosingBalance = balance
	snap.WipBalanceQty = balance
	return snap, nil
}

// sumMovements fetches only the aggregation terms the formula uses.
func (c *Calculator) sumMovements(ctx context.Context, companyCode, itemCode string, date time.Time, f BalanceFormula) (Movements, error) {
	mv := Movements{
		Incoming:      types.ZeroQuantity(),
		Outgoing:      types.ZeroQuantity(),
		MaterialUsage: types.ZeroQuantity(),
		Production:    types.ZeroQuantity(),
		Adjustment:    types.ZeroQuantity(),
	}

	var err error
	if f.UsesIncoming {
		if mv.Incoming, err = c.details.SumIncoming(ctx, companyCode, itemCode, date); err != nil {
			return mv, fmt.Errorf("sum incoming: %w", err)
		}
	}
	if f.UsesOutgoing {
		if mv.Outgoing, err = c.details.SumOutgoing(ctx, companyCode, itemCode, date); err != nil {
			return mv, fmt.Errorf("sum outgoing: %w", err)
		}
	}
	if f.UsesMaterialUsage {
		if mv.MaterialUsage, err = c.details.SumMaterialUsage(ctx, companyCode, itemCode, date); err != nil {
			return mv, fmt.Errorf("sum material usage: %w", err)
		}
	}
	if f.UsesProduction {
		if mv.Production, err = c.details.SumProduction(ctx, companyCode, itemCode, date); err != nil {
			return mv, fmt.Errorf("sum production: %w", err)
		}
	}
	if mv.Adjustment, err = c.details.SumAdjustment(ctx, companyCode, itemCode, date); err != nil {
		return mv, fmt.Errorf("sum adjustment: %w", err)
	}

	return mv, nil
}

// EnumerateItems returns the distinct item set needing recomputation for
// (company, date, scope): the union of items already present in snapshots
// on or after the date, items with an effective beginning balance, and
// items with transaction activity on or after the date.
func (c *Calculator) EnumerateItems(ctx context.Context, companyCode string, date time.Time, scope Scope, exhaustive bool) ([]ItemKey, error) {
	date = types.DateOf(date)
	merged := make(map[string]ItemKey)

	var snapshotSince *time.Time
	if !exhaustive {
		snapshotSince = &date
	}
	fromSnapshots, err := c.snapshots.ListItemKeys(ctx, companyCode, snapshotSince)
	if err != nil {
		return nil, fmt.Errorf("list snapshot items: %w", err)
	}
	mergeItemKeys(merged, fromSnapshots)

	fromBeginnings, err := c.beginnings.ListItemKeysEffective(ctx, companyCode, date)
	if err != nil {
		return nil, fmt.Errorf("list beginning balance items: %w", err)
	}
	mergeItemKeys(merged, fromBeginnings)

	fromActivity, err := c.details.ListItemKeysWithActivity(ctx, companyCode, date)
	if err != nil {
		return nil, fmt.Errorf("list transaction items: %w", err)
	}
	mergeItemKeys(merged, fromActivity)

	keys := make([]ItemKey, 0, len(merged))
	for _, key := range merged {
		if scope.Matches(key) {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ItemType != keys[j].ItemType {
			return keys[i].ItemType < keys[j].ItemType
		}
		return keys[i].ItemCode < keys[j].ItemCode
	})
	return keys, nil
}

func mergeItemKeys(dst map[string]ItemKey, keys []ItemKey) {
	for _, key := range keys {
		mapKey := string(key.ItemType) + "|" + key.ItemCode
		existing, ok := dst[mapKey]
		if !ok {
			dst[mapKey] = key
			continue
		}
		// Keep the first non-empty descriptive attributes.
		if existing.ItemName == "" {
			existing.ItemName = key.ItemName
		}
		if existing.UOM == "" {
			existing.UOM = key.UOM
		}
		dst[mapKey] = existing
	}
}
