package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/arthurjuliorisa/imaps-sub001/internal/core/entity"
	"github.com/arthurjuliorisa/imaps-sub001/internal/core/types"
)

// Resolver finds the correct starting balance for an item on a date.
// It is a pure read over persisted state at call time; repeated calls
// reflect the latest writes, so a cascade always chains from the freshly
// recomputed previous day.
type Resolver struct {
	snapshots  SnapshotRepository
	beginnings BeginningBalanceRepository
}

// NewResolver creates an opening balance resolver.
func NewResolver(snapshots SnapshotRepository, beginnings BeginningBalanceRepository) *Resolver {
	return &Resolver{
		snapshots:  snapshots,
		beginnings: beginnings,
	}
}

// ResolveOpening returns the opening balance for (company, item, date):
// the closing balance of the most recent prior snapshot; otherwise the most
// recent beginning balance dated on or before the previous day; otherwise
// zero. Missing reference data is not an error.
func (r *Resolver) ResolveOpening(ctx context.Context, companyCode string, itemType entity.ItemTypeCode, itemCode string, date time.Time) (types.Quantity, error) {
	date = types.DateOf(date)

	closing, ok, err := r.snapshots.FindPreviousClosing(ctx, companyCode, itemType, itemCode, date)
	if err != nil {
		return types.ZeroQuantity(), fmt.Errorf("find previous closing: %w", err)
	}
	if ok {
		return closing, nil
	}

	bb, ok, err := r.beginnings.FindEffective(ctx, companyCode, itemType, itemCode, date.AddDate(0, 0, -1))
	if err != nil {
		return types.ZeroQuantity(), fmt.Errorf("find beginning balance: %w", err)
	}
	if ok {
		return bb.BalanceQty, nil
	}

	return types.ZeroQuantity(), nil
}
